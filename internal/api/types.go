package api

type HealthResponse struct {
	Status  string `json:"status" description:"Service status"`
	Version string `json:"version" description:"Service version"`
}

type ReadyResponse struct {
	Ready bool `json:"ready" description:"Whether an embedded index snapshot is loaded"`
}
