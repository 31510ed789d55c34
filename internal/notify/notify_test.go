package notify

import (
	"context"
	"io"
	"log/slog"
)

// Mock store backed by maps
type mockStore struct {
	posts   map[string]*Post
	users   map[string]*User
	postErr error
	userErr error
	lookups []string
}

func (m *mockStore) GetPost(ctx context.Context, postID string) (*Post, error) {
	m.lookups = append(m.lookups, "posts/"+postID)
	if m.postErr != nil {
		return nil, m.postErr
	}
	p, ok := m.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockStore) GetUser(ctx context.Context, userID string) (*User, error) {
	m.lookups = append(m.lookups, "users/"+userID)
	if m.userErr != nil {
		return nil, m.userErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

type dispatchCall struct {
	tokens []string
	msg    Notification
}

// Mock dispatcher recording every call
type mockDispatcher struct {
	calls []dispatchCall
	err   error
}

func (m *mockDispatcher) Dispatch(ctx context.Context, tokens []string, n Notification) error {
	m.calls = append(m.calls, dispatchCall{tokens: tokens, msg: n})
	return m.err
}

type mockLinker struct {
	url string
	err error
}

func (m *mockLinker) MediaURL(ctx context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.url + key, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
