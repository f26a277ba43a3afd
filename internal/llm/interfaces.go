package llm

import "context"

// Completer is the text-completion oracle used for summarization and
// suggestion synthesis. Implementations may fail or time out; callers
// treat any error as "no result".
type Completer interface {
	Complete(ctx context.Context, system, input string) (string, error)
	GetModel() string
}
