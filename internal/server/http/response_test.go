package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
		ok     bool
	}{
		{"wrapped credential", fmt.Errorf("verify: %w", common.ErrIncorrectCode), http.StatusUnauthorized, common.ErrIncorrectCode.Error(), true},
		{"validation", invalid("minutes must be between 1 and 1440"), http.StatusBadRequest, "minutes must be between 1 and 1440", true},
		{"not found", common.ErrorNotFound, http.StatusNotFound, common.ErrorNotFound.Error(), true},
		{"rate limited", common.ErrRateLimited, http.StatusTooManyRequests, common.ErrRateLimited.Error(), true},
		{"provisioning", fmt.Errorf("%w: disk full", common.ErrStoreProvisioning), http.StatusInternalServerError, common.ErrStoreProvisioning.Error(), false},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, common.ErrorInternal.Error(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg, ok := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
