package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/macroflow/trialgate/internal/app/api/server"
	"github.com/macroflow/trialgate/internal/app/service/abuse"
	"github.com/macroflow/trialgate/internal/app/service/emailgate"
	"github.com/macroflow/trialgate/internal/app/service/events"
	"github.com/macroflow/trialgate/internal/app/service/newsletter"
	"github.com/macroflow/trialgate/internal/app/service/statistics"
	"github.com/macroflow/trialgate/internal/app/service/trial"
	"github.com/macroflow/trialgate/internal/platform/db"
	"github.com/macroflow/trialgate/pkg/config"
	"github.com/macroflow/trialgate/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	emailgate.Module,
	events.Module,
	trial.Module,
	abuse.Module,
	newsletter.Module,
	statistics.Module,
)
