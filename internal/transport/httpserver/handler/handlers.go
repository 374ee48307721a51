package handler

import (
	"legacy-keeper-go/internal/transport/httpserver/handler/approvals"
	"legacy-keeper-go/internal/transport/httpserver/handler/common"
	"legacy-keeper-go/internal/transport/httpserver/handler/nominees"
	"legacy-keeper-go/internal/transport/httpserver/handler/trustees"
)

type Handlers struct {
	Common    *common.Handlers
	Trustees  *trustees.Handlers
	Nominees  *nominees.Handlers
	Approvals *approvals.Handlers
}

func New(common *common.Handlers, trustees *trustees.Handlers, nominees *nominees.Handlers, approvals *approvals.Handlers) *Handlers {
	return &Handlers{
		Common:    common,
		Trustees:  trustees,
		Nominees:  nominees,
		Approvals: approvals,
	}
}
