package interfaces

import (
	"context"
)

// Command is a bot action. List commands are re-executed with the list
// message when the chat pages through them.
type Command[T any] interface {
	Execute(ctx context.Context, args T)
}
