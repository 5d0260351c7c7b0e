package colerrors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
)

// Example demonstrates basic error creation with context details.
func Example() {
	err := colerrors.New(colerrors.ErrorTypeMissingField, "required field is absent").
		WithDetail("field", "user_id").
		WithDetail("record", 42)

	fmt.Println(err.Error())
	fmt.Println(colerrors.IsRecoverable(err))

	// Output:
	// missing_field: required field is absent
	// true
}

// ExampleWrap shows how an I/O failure is wrapped into a fatal error.
func ExampleWrap() {
	err := colerrors.Wrap(io.ErrShortWrite, colerrors.ErrorTypeIO, "failed to write row group").
		WithDetail("row_group", 3)

	if colerrors.IsType(err, colerrors.ErrorTypeIO) {
		fmt.Println("This is an io error")
	}
	fmt.Println(colerrors.IsRecoverable(err))
	fmt.Println(err)

	// Output:
	// This is an io error
	// false
	// io: failed to write row group: short write
}

// ExampleTypeOf demonstrates classifying errors for run summaries.
func ExampleTypeOf() {
	parseErr := colerrors.Newf(colerrors.ErrorTypeParse, "line %d: unexpected end of input", 7)
	fmt.Println(colerrors.TypeOf(parseErr))
	fmt.Println(colerrors.TypeOf(io.EOF))

	// Output:
	// parse
	// internal
}
