package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceAuth_InitialState(t *testing.T) {
	want := AuthState{Token: "dummy"}
	assert.Equal(t, want, InitialAuthState())
	assert.Equal(t, want, ReduceAuth(InitialAuthState(), nil))
	assert.False(t, InitialAuthState().Authenticated())
}

func TestReduceAuth_Transitions(t *testing.T) {
	authenticated := AuthState{
		Token:  "test-token-123",
		UserID: "user-123",
		Email:  "test@example.com",
	}

	cases := []struct {
		name   string
		state  AuthState
		action AuthAction
		want   AuthState
	}{
		{
			name:   "start sets loading",
			state:  InitialAuthState(),
			action: AuthStartAction{},
			want:   AuthState{Token: "dummy", Loading: true},
		},
		{
			name:   "start from error state clears error",
			state:  AuthState{Token: "dummy", Error: "Previous error"},
			action: AuthStartAction{},
			want:   AuthState{Token: "dummy", Loading: true},
		},
		{
			name:  "success stores credentials",
			state: AuthState{Token: "dummy", Loading: true, Error: "stale"},
			action: AuthSuccessAction{
				Token:  "test-token-123",
				UserID: "user-123",
				Email:  "test@example.com",
			},
			want: authenticated,
		},
		{
			name:   "fail sets error and keeps credentials",
			state:  AuthState{Token: "dummy", Loading: true},
			action: AuthFailAction{Error: "Invalid credentials"},
			want:   AuthState{Token: "dummy", Error: "Invalid credentials"},
		},
		{
			name:   "logout clears only credentials",
			state:  AuthState{Token: "t", UserID: "u", Email: "e", Error: "kept", Loading: true},
			action: AuthLogoutAction{},
			want:   AuthState{Error: "kept", Loading: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.state
			got := ReduceAuth(tc.state, tc.action)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, before, tc.state, "input state must not change")
		})
	}
}

func TestReduceAuth_MultipleCycles(t *testing.T) {
	state := InitialAuthState()

	state = ReduceAuth(state, AuthStartAction{})
	require.True(t, state.Loading)

	state = ReduceAuth(state, AuthSuccessAction{Token: "t1", UserID: "user1", Email: "user1@test.com"})
	require.Equal(t, "t1", state.Token)
	require.False(t, state.Loading)
	require.True(t, state.Authenticated())

	state = ReduceAuth(state, AuthLogoutAction{})
	require.Empty(t, state.Token)
	require.False(t, state.Authenticated())

	state = ReduceAuth(state, AuthStartAction{})
	require.True(t, state.Loading)

	state = ReduceAuth(state, AuthFailAction{Error: "Network error"})
	require.Equal(t, "Network error", state.Error)
	require.False(t, state.Loading)
}
