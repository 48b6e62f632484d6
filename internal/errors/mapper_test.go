package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		err    error
		code   codes.Code
		reason string
	}{
		{fmt.Errorf("self pair: %w", svcErr.ErrInvalidInput), codes.InvalidArgument, svcErr.ReasonInvalidInput},
		{svcErr.ErrDuplicateMatch, codes.AlreadyExists, svcErr.ReasonDuplicateMatch},
		{svcErr.ErrNotParticipant, codes.PermissionDenied, svcErr.ReasonNotParticipant},
		{svcErr.ErrAlreadyResolved, codes.FailedPrecondition, svcErr.ReasonAlreadyResolved},
		{svcErr.ErrInvalidStateTransition, codes.FailedPrecondition, svcErr.ReasonInvalidStateTransition},
		{gorm.ErrRecordNotFound, codes.NotFound, svcErr.ReasonNotFound},
		{svcErr.ErrUnauthenticated, codes.Unauthenticated, svcErr.ReasonUnauthenticated},
	}

	for _, tc := range cases {
		got := svcErr.Map(tc.err)
		st, ok := status.FromError(got)
		if assert.True(t, ok, tc.err.Error()) {
			assert.Equal(t, tc.code, st.Code(), tc.err.Error())
		}
		assert.Equal(t, tc.reason, svcErr.ReasonFromStatus(got), tc.err.Error())
	}

	assert.Nil(t, svcErr.Map(nil))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(svcErr.Map(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, status.Code(svcErr.Map(fmt.Errorf("boom"))))

	// already a status error → untouched
	pre := status.Error(codes.Aborted, "x")
	assert.Equal(t, pre, svcErr.Map(pre))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, svcErr.HTTPStatus(svcErr.ErrInvalidInput))
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus(fmt.Errorf("x: %w", svcErr.ErrDuplicateMatch)))
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus(svcErr.ErrAlreadyResolved))
	assert.Equal(t, http.StatusForbidden, svcErr.HTTPStatus(svcErr.ErrNotParticipant))
	assert.Equal(t, http.StatusNotFound, svcErr.HTTPStatus(svcErr.ErrNotFound))
	assert.Equal(t, http.StatusUnauthorized, svcErr.HTTPStatus(svcErr.ErrUnauthenticated))
	assert.Equal(t, http.StatusInternalServerError, svcErr.HTTPStatus(fmt.Errorf("boom")))
}
