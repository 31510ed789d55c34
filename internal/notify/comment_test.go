package notify

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func commentEvent(authorID, authorName string) CommentCreated {
	return CommentCreated{
		PostID:    "p1",
		CommentID: "c1",
		Comment: Comment{
			ID:         "c1",
			PostID:     "p1",
			AuthorID:   authorID,
			AuthorName: authorName,
			Text:       "nice shot",
		},
	}
}

func TestCommentNotifier_DispatchesToAllOwnerTokens(t *testing.T) {
	store := &mockStore{
		posts: map[string]*Post{"p1": {ID: "p1", OwnerID: "owner"}},
		users: map[string]*User{"owner": {ID: "owner", Name: "Olga", Tokens: []string{"t1", "t2"}}},
	}
	disp := &mockDispatcher{}
	n := NewCommentNotifier(store, disp, testLogger())

	out, err := n.OnCommentCreated(context.Background(), commentEvent("u9", "Ivan"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Dispatched || out.Recipients != 2 {
		t.Errorf("Expected dispatch to 2 recipients, got %+v", out)
	}
	if len(disp.calls) != 1 {
		t.Fatalf("Expected exactly one dispatch, got %d", len(disp.calls))
	}

	call := disp.calls[0]
	if !reflect.DeepEqual(call.tokens, []string{"t1", "t2"}) {
		t.Errorf("Expected tokens [t1 t2], got %v", call.tokens)
	}
	if !strings.Contains(call.msg.Title, "Ivan") {
		t.Errorf("Expected title to contain commenter name, got %q", call.msg.Title)
	}
	if call.msg.Title != "Ivan commented on your post" {
		t.Errorf("Unexpected title %q", call.msg.Title)
	}
	if call.msg.Body != "nice shot" {
		t.Errorf("Expected body to be comment text, got %q", call.msg.Body)
	}
	if call.msg.Sound != DefaultSound {
		t.Errorf("Expected sound %q, got %q", DefaultSound, call.msg.Sound)
	}
	wantData := map[string]string{"postId": "p1", "type": "comment"}
	if !reflect.DeepEqual(call.msg.Data, wantData) {
		t.Errorf("Expected data %v, got %v", wantData, call.msg.Data)
	}
}

func TestCommentNotifier_Skips(t *testing.T) {
	tests := []struct {
		name  string
		store *mockStore
		event CommentCreated
		want  SkipReason
	}{
		{
			name:  "post missing",
			store: &mockStore{},
			event: commentEvent("u9", "Ivan"),
			want:  SkipPostNotFound,
		},
		{
			name: "own post",
			store: &mockStore{
				posts: map[string]*Post{"p1": {ID: "p1", OwnerID: "u9"}},
				users: map[string]*User{"u9": {ID: "u9", Tokens: []string{"t1"}}},
			},
			event: commentEvent("u9", "Ivan"),
			want:  SkipSelfAction,
		},
		{
			name: "owner missing",
			store: &mockStore{
				posts: map[string]*Post{"p1": {ID: "p1", OwnerID: "owner"}},
			},
			event: commentEvent("u9", "Ivan"),
			want:  SkipOwnerNotFound,
		},
		{
			name: "owner without tokens",
			store: &mockStore{
				posts: map[string]*Post{"p1": {ID: "p1", OwnerID: "owner"}},
				users: map[string]*User{"owner": {ID: "owner"}},
			},
			event: commentEvent("u9", "Ivan"),
			want:  SkipNoTokens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp := &mockDispatcher{}
			n := NewCommentNotifier(tt.store, disp, testLogger())

			out, err := n.OnCommentCreated(context.Background(), tt.event)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if out.Dispatched || out.Skip != tt.want {
				t.Errorf("Expected skip %q, got %+v", tt.want, out)
			}
			if len(disp.calls) != 0 {
				t.Errorf("Expected no dispatch, got %d", len(disp.calls))
			}
		})
	}
}

func TestCommentNotifier_SelfCommentSkipsUserLookup(t *testing.T) {
	store := &mockStore{
		posts: map[string]*Post{"p1": {ID: "p1", OwnerID: "u9"}},
	}
	n := NewCommentNotifier(store, &mockDispatcher{}, testLogger())

	if _, err := n.OnCommentCreated(context.Background(), commentEvent("u9", "Ivan")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(store.lookups, []string{"posts/p1"}) {
		t.Errorf("Expected only the post lookup, got %v", store.lookups)
	}
}

func TestCommentNotifier_PropagatesErrors(t *testing.T) {
	storeErr := errors.New("connection reset")

	t.Run("store failure", func(t *testing.T) {
		disp := &mockDispatcher{}
		n := NewCommentNotifier(&mockStore{postErr: storeErr}, disp, testLogger())

		_, err := n.OnCommentCreated(context.Background(), commentEvent("u9", "Ivan"))
		if !errors.Is(err, storeErr) {
			t.Errorf("Expected store error, got %v", err)
		}
		if len(disp.calls) != 0 {
			t.Errorf("Expected no dispatch, got %d", len(disp.calls))
		}
	})

	t.Run("dispatch failure", func(t *testing.T) {
		dispErr := errors.New("push unavailable")
		store := &mockStore{
			posts: map[string]*Post{"p1": {ID: "p1", OwnerID: "owner"}},
			users: map[string]*User{"owner": {ID: "owner", Tokens: []string{"t1"}}},
		}
		n := NewCommentNotifier(store, &mockDispatcher{err: dispErr}, testLogger())

		out, err := n.OnCommentCreated(context.Background(), commentEvent("u9", "Ivan"))
		if !errors.Is(err, dispErr) {
			t.Errorf("Expected dispatch error, got %v", err)
		}
		if out.Dispatched {
			t.Errorf("Expected outcome not to be dispatched on error")
		}
	})
}
