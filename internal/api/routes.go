package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazriegel"

	AuthenticateRoute = "/v1/session/authenticate"

	AdminParent       = "/v1/admin/"
	ListAuditsRoute   = AdminParent + "audits"
	VerifyAuditsRoute = AdminParent + "audits/verify"
	ExplainRoute      = AdminParent + "routes/explain"

	EvidenceParent   = "/v1/evidence/"
	TagEvidenceRoute = EvidenceParent + "tag"
)
