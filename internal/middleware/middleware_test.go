package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
)

type ping struct{}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "alice@example.com"})
	require.NoError(t, err)

	var seenUser, seenEmail string
	handler := RequireAuth(jwtManager)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seenUser = GetUserID(ctx)
		seenEmail = GetEmail(ctx)
		return connect.NewResponse(&ping{}), nil
	})

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
	}{
		{name: "valid token", header: "Bearer " + token},
		{name: "lowercase scheme", header: "bearer " + token},
		{name: "missing header", wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, wantCode: connect.CodeUnauthenticated},
		{name: "empty token", header: "Bearer ", wantCode: connect.CodeUnauthenticated},
		{name: "bad token", header: "Bearer nope", wantCode: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUser, seenEmail = "", ""
			req := connect.NewRequest(&ping{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := handler(context.Background(), req)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				assert.Empty(t, seenUser)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", seenUser)
			assert.Equal(t, "alice@example.com", seenEmail)
		})
	}
}

func TestBearerToken(t *testing.T) {
	_, err := bearerToken("")
	assert.True(t, errors.Is(err, auth.ErrMissingToken))

	token, err := bearerToken("Bearer  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	want := connect.NewError(connect.CodeNotFound, errors.New("group not found"))
	handler := LoggingInterceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, want
	})

	_, err := handler(WithUser(context.Background(), "user-1", ""), connect.NewRequest(&ping{}))
	assert.Equal(t, want, err)
}
