package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

func handlerWithErrorHandler[I, O any](handler handler[I, O], do func(context.Context, error)) handler[I, O] {
	if do == nil {
		return handler
	}

	return func(ctx context.Context, i *I) (*O, error) {
		o, err := handler(ctx, i)
		if err != nil {
			do(ctx, err)
		}
		return o, err
	}
}

// opID names the operation, groups it under tag and declares the error
// statuses it can answer with.
func opID(id, tag string, codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) {
		o.OperationID = id
		o.Tags = []string{tag}
		o.Errors = codes
	}
}
