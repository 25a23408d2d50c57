package nav

import (
	"fmt"
	"strings"
	"sync"
)

// Route is a client-visible location
type Route string

const (
	RouteLogin         Route = "/login"
	RouteHome          Route = "/"
	RouteInbox         Route = "/inbox"
	RouteCapture       Route = "/capture"
	RouteClarify       Route = "/clarify"
	RouteOrganize      Route = "/organize"
	RouteEngage        Route = "/engage"
	RouteReview        Route = "/review"
	RouteProfile       Route = "/profile"
	RouteShop          Route = "/shop"
	RouteAchievements  Route = "/achievements"
	RouteCalendar      Route = "/calendar"
	RouteTeam          Route = "/team"
	RouteNotifications Route = "/notifications"
	RouteTaskDetails   Route = "/task-details"
	RouteProjects      Route = "/projects"
)

// Routes lists every known route
var Routes = []Route{
	RouteLogin, RouteHome, RouteInbox, RouteCapture, RouteClarify,
	RouteOrganize, RouteEngage, RouteReview, RouteProfile, RouteShop,
	RouteAchievements, RouteCalendar, RouteTeam, RouteNotifications,
	RouteTaskDetails, RouteProjects,
}

// Parse converts a path into a known route
func Parse(s string) (Route, error) {
	s = strings.TrimSpace(s)
	if s != "/" {
		s = strings.TrimRight(s, "/")
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	for _, r := range Routes {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown route %q", s)
}

// Guard returns where a request for route should land. Unauthenticated
// users only ever reach the login route.
func Guard(authenticated bool, route Route) Route {
	if !authenticated {
		return RouteLogin
	}
	if route == RouteLogin || route == "" {
		return RouteHome
	}
	return route
}

// Navigator moves the whole application to a route
type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

// Recorder is a Navigator that remembers every navigation
type Recorder struct {
	mu     sync.Mutex
	routes []Route
}

func (r *Recorder) Navigate(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Routes returns the recorded navigations in order
func (r *Recorder) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// Last returns the most recent navigation, or "" if there was none
func (r *Recorder) Last() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
