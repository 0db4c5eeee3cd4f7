package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ztsentinel/sentinel/internal/domain"
	"github.com/ztsentinel/sentinel/internal/infra/metrics"
)

// accessDecideRequest mirrors domain.AccessContext's fields as wire JSON.
type accessDecideRequest struct {
	EntityID             string               `json:"entity_id"`
	Resource             string               `json:"resource"`
	Action               string               `json:"action"`
	SourceIP             string               `json:"source_ip"`
	Location             string               `json:"location"`
	Hour                 *int                 `json:"hour"`
	DayOfWeek            *int                 `json:"day_of_week"`
	DeviceHealth         *deviceHealthRequest `json:"device_health"`
	BehaviorScore        float64              `json:"behavior_score"`
	RiskScore            float64              `json:"risk_score"`
	SessionID            string               `json:"session_id"`
	AuthenticationMethod string               `json:"authentication_method"`
	MFAVerified          bool                 `json:"mfa_verified"`
	NetworkZone          string               `json:"network_zone"`
}

type deviceHealthRequest struct {
	DeviceID        string  `json:"device_id"`
	OSPatched       bool    `json:"os_patched"`
	AntivirusActive bool    `json:"antivirus_active"`
	DiskEncrypted   bool    `json:"disk_encrypted"`
	FirewallEnabled bool    `json:"firewall_enabled"`
	ComplianceScore float64 `json:"compliance_score"`
}

func (req accessDecideRequest) toContext() domain.AccessContext {
	hour, dow := -1, -1
	if req.Hour != nil {
		hour = *req.Hour
	}
	if req.DayOfWeek != nil {
		dow = *req.DayOfWeek
	}

	device := domain.NewDeviceHealth()
	if req.DeviceHealth != nil {
		device = domain.DeviceHealth{
			DeviceID:        req.DeviceHealth.DeviceID,
			OSPatched:       req.DeviceHealth.OSPatched,
			AntivirusActive: req.DeviceHealth.AntivirusActive,
			DiskEncrypted:   req.DeviceHealth.DiskEncrypted,
			FirewallEnabled: req.DeviceHealth.FirewallEnabled,
			ComplianceScore: req.DeviceHealth.ComplianceScore,
			LastCheck:       time.Now(),
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	return domain.AccessContext{
		EntityID:             req.EntityID,
		Resource:             req.Resource,
		Action:               req.Action,
		SourceIP:             req.SourceIP,
		Location:             req.Location,
		Hour:                 hour,
		DayOfWeek:            dow,
		Device:               device,
		BehaviorScore:        req.BehaviorScore,
		RiskScore:            req.RiskScore,
		SessionID:            sessionID,
		AuthenticationMethod: req.AuthenticationMethod,
		MFAVerified:          req.MFAVerified,
		NetworkZone:          req.NetworkZone,
		Timestamp:            time.Now(),
	}
}

func (s *Server) handleAccessDecide(w http.ResponseWriter, r *http.Request) {
	var req accessDecideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, "entity_id is required")
		return
	}

	decision := s.Access.Evaluate(req.toContext())
	metrics.AccessDecisions.WithLabelValues(string(decision.Decision)).Inc()
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleAccessDecisions(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.Access.RecentDecisions(n))
}

func (s *Server) handleAccessStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Access.DecisionStats())
}
