package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "dates not increasing at row %d", 7)
	suite.Equal("dates not increasing at row 7", err.Message)
	suite.Equal("[100] dates not increasing at row 7", err.Error())
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeMarketDataFetchFailed, "failed to fetch bars", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[700] failed to fetch bars: connection refused", err.Error())
	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("no rows")
	err := Wrapf(ErrCodeDataNotFound, cause, "no bars for %s", "QQQ")
	suite.Equal("no bars for QQQ", err.Message)
	suite.Equal(ErrCodeDataNotFound, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCode() {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"typed error", New(ErrCodeQueryFailed, "query failed"), ErrCodeQueryFailed},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrCodeQuoteUnavailable, "no quote")), ErrCodeQuoteUnavailable},
		{"insufficient data", NewInsufficientDataError(156, 20), ErrCodeInsufficientData},
		{"standard error", errors.New("plain"), ErrCodeUnknown},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, GetCode(tc.err))
			suite.True(HasCode(tc.err, tc.expected))
		})
	}
}

func (suite *ErrorTestSuite) TestAsError() {
	err := fmt.Errorf("context: %w", New(ErrCodeInvalidConfiguration, "bad config"))

	var typed *Error
	suite.True(As(err, &typed))
	suite.Equal(ErrCodeInvalidConfiguration, typed.Code)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError(156, 120)
	suite.Equal(156, err.Required)
	suite.Equal(120, err.Actual)
	suite.Equal("not enough data: required 156 rows, got 120", err.Error())

	formatted := NewInsufficientDataErrorf(156, 3, "need %d rows for the year average", 156)
	suite.Equal("need 156 rows for the year average", formatted.Error())
}

func (suite *ErrorTestSuite) TestIsInsufficientDataError() {
	suite.True(IsInsufficientDataError(NewInsufficientDataError(10, 1)))
	suite.True(IsInsufficientDataError(fmt.Errorf("wrapped: %w", NewInsufficientDataError(10, 1))))
	suite.False(IsInsufficientDataError(errors.New("standard error")))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "invalid parameter")))
	suite.False(IsInsufficientDataError(nil))
}
