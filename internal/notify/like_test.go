package notify

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func likeEvent(owner string, before, after []string) PostUpdated {
	return PostUpdated{
		PostID: "p1",
		Before: Post{ID: "p1", OwnerID: owner, Text: "sunset", Likes: before},
		After:  Post{ID: "p1", OwnerID: owner, Text: "sunset", Likes: after},
	}
}

func TestLikeNotifier_NewLiker(t *testing.T) {
	// before [u1], after [u1 u2], owner u1
	store := &mockStore{
		users: map[string]*User{
			"u1": {ID: "u1", Name: "Owner", Tokens: []string{"t1"}},
			"u2": {ID: "u2", Name: "Aigerim"},
		},
	}
	disp := &mockDispatcher{}
	n := NewLikeNotifier(store, disp, nil, testLogger())

	out, err := n.OnPostUpdated(context.Background(), likeEvent("u1", []string{"u1"}, []string{"u1", "u2"}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Dispatched || out.Recipients != 1 {
		t.Errorf("Expected dispatch to 1 recipient, got %+v", out)
	}
	if len(disp.calls) != 1 {
		t.Fatalf("Expected exactly one dispatch, got %d", len(disp.calls))
	}

	msg := disp.calls[0].msg
	if msg.Title != "Aigerim liked your post" {
		t.Errorf("Unexpected title %q", msg.Title)
	}
	if msg.Body != "sunset" {
		t.Errorf("Expected post text as body, got %q", msg.Body)
	}
	if msg.ImageURL != "" {
		t.Errorf("Expected no image without a linker, got %q", msg.ImageURL)
	}
	wantData := map[string]string{"postId": "p1", "type": "like"}
	if !reflect.DeepEqual(msg.Data, wantData) {
		t.Errorf("Expected data %v, got %v", wantData, msg.Data)
	}
}

func TestLikeNotifier_NamelessLikerAndMediaPost(t *testing.T) {
	store := &mockStore{
		users: map[string]*User{
			"owner": {ID: "owner", Tokens: []string{"t1", "t2"}},
			"u2":    {ID: "u2"},
		},
	}
	disp := &mockDispatcher{}
	n := NewLikeNotifier(store, disp, &mockLinker{url: "https://media.local/"}, testLogger())

	ev := likeEvent("owner", nil, []string{"u2"})
	ev.After.Text = ""
	ev.After.ImageKey = "posts/p1.jpg"

	if _, err := n.OnPostUpdated(context.Background(), ev); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(disp.calls) != 1 {
		t.Fatalf("Expected exactly one dispatch, got %d", len(disp.calls))
	}

	msg := disp.calls[0].msg
	if msg.Title != "Someone liked your post" {
		t.Errorf("Unexpected title %q", msg.Title)
	}
	if msg.Body != "Your media post" {
		t.Errorf("Unexpected body %q", msg.Body)
	}
	if msg.ImageURL != "https://media.local/posts/p1.jpg" {
		t.Errorf("Unexpected image URL %q", msg.ImageURL)
	}
}

func TestLikeNotifier_MediaLinkFailureStillDispatches(t *testing.T) {
	store := &mockStore{
		users: map[string]*User{
			"owner": {ID: "owner", Tokens: []string{"t1"}},
			"u2":    {ID: "u2", Name: "Dana"},
		},
	}
	disp := &mockDispatcher{}
	n := NewLikeNotifier(store, disp, &mockLinker{err: errors.New("bucket down")}, testLogger())

	ev := likeEvent("owner", nil, []string{"u2"})
	ev.After.ImageKey = "posts/p1.jpg"

	out, err := n.OnPostUpdated(context.Background(), ev)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Dispatched {
		t.Fatalf("Expected dispatch, got %+v", out)
	}
	if disp.calls[0].msg.ImageURL != "" {
		t.Errorf("Expected no image URL, got %q", disp.calls[0].msg.ImageURL)
	}
}

func TestLikeNotifier_Skips(t *testing.T) {
	users := map[string]*User{
		"u1": {ID: "u1", Name: "One", Tokens: []string{"t1"}},
		"u2": {ID: "u2", Name: "Two"},
	}

	tests := []struct {
		name  string
		store *mockStore
		event PostUpdated
		want  SkipReason
	}{
		{
			name:  "like removed",
			store: &mockStore{users: users},
			event: likeEvent("u1", []string{"u1", "u2"}, []string{"u1"}),
			want:  SkipNoNewLike,
		},
		{
			name:  "caption edited",
			store: &mockStore{users: users},
			event: likeEvent("u1", []string{"u2"}, []string{"u2"}),
			want:  SkipNoNewLike,
		},
		{
			name:  "same size swap",
			store: &mockStore{users: users},
			event: likeEvent("u1", []string{"u2"}, []string{"u3"}),
			want:  SkipNoNewLike,
		},
		{
			name:  "two new likes",
			store: &mockStore{users: users},
			event: likeEvent("u1", nil, []string{"u2", "u3"}),
			want:  SkipAmbiguousLike,
		},
		{
			// before [], after [u1], owner u1
			name:  "self like",
			store: &mockStore{users: users},
			event: likeEvent("u1", nil, []string{"u1"}),
			want:  SkipSelfAction,
		},
		{
			name:  "liker missing",
			store: &mockStore{users: users},
			event: likeEvent("u1", nil, []string{"ghost"}),
			want:  SkipLikerNotFound,
		},
		{
			name:  "owner missing",
			store: &mockStore{users: users},
			event: likeEvent("gone", nil, []string{"u2"}),
			want:  SkipOwnerNotFound,
		},
		{
			name:  "owner without tokens",
			store: &mockStore{users: users},
			event: likeEvent("u2", nil, []string{"u1"}),
			want:  SkipNoTokens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp := &mockDispatcher{}
			n := NewLikeNotifier(tt.store, disp, nil, testLogger())

			out, err := n.OnPostUpdated(context.Background(), tt.event)
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

func TestLikeNotifier_NoLookupsWithoutNewLike(t *testing.T) {
	store := &mockStore{}
	n := NewLikeNotifier(store, &mockDispatcher{}, nil, testLogger())

	if _, err := n.OnPostUpdated(context.Background(), likeEvent("u1", []string{"u1"}, nil)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(store.lookups) != 0 {
		t.Errorf("Expected no store lookups, got %v", store.lookups)
	}
}

func TestLikeNotifier_PropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("timeout")
	disp := &mockDispatcher{}
	n := NewLikeNotifier(&mockStore{userErr: storeErr}, disp, nil, testLogger())

	_, err := n.OnPostUpdated(context.Background(), likeEvent("u1", nil, []string{"u2"}))
	if !errors.Is(err, storeErr) {
		t.Errorf("Expected store error, got %v", err)
	}
	if len(disp.calls) != 0 {
		t.Errorf("Expected no dispatch, got %d", len(disp.calls))
	}
}
