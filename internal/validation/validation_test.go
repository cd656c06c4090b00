package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantMsg  string
	}{
		{"Valid", "night_owl42", ""},
		{"Exactly Three", "abc", ""},
		{"Empty", "", "Username is required"},
		{"Too Short", "ab", "Username must be at least 3 characters long"},
		{"Special Chars", "night-owl", "Username must not contain special characters"},
		{"Spaces", "night owl", "Username must not contain special characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username(tt.username)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "username", verr.Fields[0].Field)
			assert.Equal(t, tt.wantMsg, verr.Fields[0].Message)
		})
	}
}

func TestSignUpSchema(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   SignUp
		wantErr []string
	}{
		{"Valid", SignUp{Username: "owl", Email: "owl@example.com", Password: "secret"}, nil},
		{"Password Max Bound", SignUp{Username: "owl", Email: "owl@example.com", Password: "12345678"}, nil},
		{"Password Too Long", SignUp{Username: "owl", Email: "owl@example.com", Password: "123456789"}, []string{"password"}},
		{"Password Too Short", SignUp{Username: "owl", Email: "owl@example.com", Password: "12"}, []string{"password"}},
		{"Bad Email", SignUp{Username: "owl", Email: "owl-at-example", Password: "secret"}, []string{"email"}},
		{"Everything Wrong", SignUp{Username: "o!", Email: "", Password: ""}, []string{"username", "email", "password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tt.wantErr, fields)
		})
	}
}

func TestSignInSchema(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Struct(SignIn{Identifier: "owl@example.com", Password: "x"}))

	err := Struct(SignIn{Identifier: "owl", Password: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Identifier must be a valid email address")
	assert.Contains(t, err.Error(), "Password is required")
}

func TestVerifyCodeSchema(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Struct(VerifyCode{Username: "owl", Code: "123456"}))
	assert.Error(t, Struct(VerifyCode{Username: "owl", Code: "12345"}))
	assert.Error(t, Struct(VerifyCode{Username: "owl", Code: "12a456"}))
}

func TestSendMessageSchema(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Struct(SendMessage{Username: "owl", Content: "hello there"}))

	err := Struct(SendMessage{Username: "owl", Content: strings.Repeat("x", 301)})
	require.Error(t, err)
	assert.Equal(t, "Content must not be longer than 300 characters", err.Error())
}

func TestAcceptMessagesSchema(t *testing.T) {
	t.Parallel()
	off := false
	assert.NoError(t, Struct(AcceptMessages{AcceptMessages: &off}))
	assert.Error(t, Struct(AcceptMessages{}))
}
