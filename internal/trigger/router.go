package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// HandlerFunc handles one routed event. A returned error fails the invocation.
type HandlerFunc func(ctx context.Context, ev Event) error

type route struct {
	kind     Kind
	pattern  string
	segments []string
	handler  HandlerFunc
}

// Router matches envelopes against registered document patterns
type Router struct {
	routes []route
	logger *slog.Logger
}

// NewRouter creates an empty router
func NewRouter(logger *slog.Logger) *Router {
	return &Router{logger: logger}
}

// Handle registers a handler for changes of the given kind on documents
// matching pattern. Pattern segments written as {name} bind a path parameter,
// e.g. "posts/{postId}/comments/{commentId}".
func (r *Router) Handle(kind Kind, pattern string, handler HandlerFunc) {
	pattern = strings.Trim(pattern, "/")
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" {
			panic(fmt.Sprintf("trigger: empty segment in pattern %q", pattern))
		}
	}
	r.routes = append(r.routes, route{
		kind:     kind,
		pattern:  pattern,
		segments: strings.Split(pattern, "/"),
		handler:  handler,
	})
}

// Dispatch invokes the first route matching the envelope. Envelopes no route
// is interested in are dropped.
func (r *Router) Dispatch(ctx context.Context, env *Envelope) error {
	path := strings.Split(env.Document, "/")
	for _, rt := range r.routes {
		if rt.kind != env.Kind {
			continue
		}
		params, ok := match(rt.segments, path)
		if !ok {
			continue
		}

		r.logger.Debug("Routing document event",
			"eventID", env.ID,
			"kind", env.Kind,
			"document", env.Document,
			"pattern", rt.pattern)

		return rt.handler(ctx, Event{Envelope: *env, Params: params})
	}

	r.logger.Debug("No route for document event",
		"eventID", env.ID,
		"kind", env.Kind,
		"document", env.Document)
	return nil
}

func match(segments, path []string) (map[string]string, bool) {
	if len(segments) != len(path) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range segments {
		if name, ok := paramName(seg); ok {
			if path[i] == "" {
				return nil, false
			}
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func paramName(seg string) (string, bool) {
	if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}
