package http

import "github.com/testvault-io/testvault-backend/internal/testcases/service"

// Handler bundles the dependencies for test case HTTP endpoints.
type Handler struct {
	svc *service.TestCaseService
}

func New(svc *service.TestCaseService) *Handler {
	return &Handler{svc: svc}
}

type bulkStatusReq struct {
	TestCaseIDs []int64 `json:"test_case_ids"`
	Status      string  `json:"status"`
}
