package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hubibot/internal/device"
)

type groupsResponse struct {
	Groups []string `json:"groups"`
}

type devicesResponse struct {
	Group   string           `json:"group,omitempty"`
	Devices []*device.Device `json:"devices"`
}

// handleListGroups lists the enabled device groups in configuration order.
func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := s.names.Groups()
	resp := groupsResponse{Groups: make([]string, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, g.Name())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGroupDevices lists a group's visible devices sorted by label.
func (s *Server) handleGroupDevices(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	g, ok := s.names.Group(name)
	if !ok {
		writeNotFound(w, "not found")
		return
	}
	devices, err := g.Sorted(r.Context())
	if err != nil {
		s.logger.Warn("listing group devices failed", "group", name, "error", err)
		writeHubError(w)
		return
	}
	writeJSON(w, http.StatusOK, devicesResponse{Group: name, Devices: devices})
}

// handleResolve resolves ?names= the way chat commands do, within the
// comma-separated ?groups= (all enabled groups when absent).
//
// An unresolved name yields 404 for the whole request.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	names := strings.TrimSpace(r.URL.Query().Get("names"))
	if names == "" {
		writeBadRequest(w, "names query parameter is required")
		return
	}

	groups, unknown := s.selectGroups(r.URL.Query().Get("groups"))
	if unknown != "" {
		writeBadRequest(w, "unknown device group: "+unknown)
		return
	}

	set, err := s.names.ResolveDevices(r.Context(), names, groups)
	if err != nil {
		s.logger.Warn("resolving device names failed", "names", names, "error", err)
		writeHubError(w)
		return
	}
	if len(set) == 0 {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, devicesResponse{Devices: set.Sorted()})
}

// selectGroups parses a comma-separated group list. It returns the first
// unknown name when one is present.
func (s *Server) selectGroups(param string) ([]*device.Group, string) {
	param = strings.TrimSpace(param)
	if param == "" {
		return s.names.Groups(), ""
	}
	var groups []*device.Group
	for _, name := range strings.Split(param, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		g, ok := s.names.Group(name)
		if !ok {
			return nil, name
		}
		groups = append(groups, g)
	}
	return groups, ""
}

// handleRefresh drops the cached inventory and group views.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.names.Refresh()
	subject := ""
	if claims := claimsFrom(r.Context()); claims != nil {
		subject = claims.Subject
	}
	s.logger.Info("device caches refreshed via api", "subject", subject)
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
