package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/covline/covline/internal/certificate"
	"github.com/covline/covline/internal/clock"
	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/contract"
	"github.com/covline/covline/internal/emailvalidation"
	"github.com/covline/covline/internal/migration"
	"github.com/covline/covline/internal/observability"
	"github.com/covline/covline/internal/payment"
	"github.com/covline/covline/internal/policy"
	email "github.com/covline/covline/internal/providers/email"
	"github.com/covline/covline/internal/server"
	"github.com/covline/covline/internal/signature"
	"github.com/covline/covline/internal/token"
	"github.com/covline/covline/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		token.Module,
		policy.Module,
		contract.Module,
		certificate.Module,
		email.Module,
		payment.Module,
		signature.Module,
		emailvalidation.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
