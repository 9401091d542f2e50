// Package sdk implements the JSON protocol spoken between a GeoPub host and
// an out-of-process preprocessor.
//
// Example usage:
//
//	ctx, err := sdk.ReadContext(os.Stdin)
//	if err != nil {
//		return err
//	}
//	book := models.NewBook()
//	if err := sdk.JsonToBook(ctx.Book, book); err != nil {
//		return err
//	}
//	// Transform book here
//	ctx.Book = sdk.BookToJson(book)
//	return sdk.WriteContext(os.Stdout, ctx)
package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNoBook is returned when a context carries no book
var ErrNoBook = errors.New("preprocessor context has no book")

// ReadContext reads a preprocessor context from r
func ReadContext(r io.Reader) (*PreprocessorContext, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}

	ctx, err := UnmarshalContext(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	if ctx.Book == nil {
		return nil, ErrNoBook
	}
	return ctx, nil
}

// WriteContext writes a preprocessor context to w
// This is what will be read by GeoPub to apply mutations
func WriteContext(w io.Writer, ctx *PreprocessorContext) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ctx); err != nil {
		return fmt.Errorf("failed to write context: %w", err)
	}
	return nil
}

// UnmarshalContext unmarshals a context from JSON
func UnmarshalContext(data []byte) (*PreprocessorContext, error) {
	var ctx PreprocessorContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, err
	}
	return &ctx, nil
}
