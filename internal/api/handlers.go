package api

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/i18n"
	"github.com/terraincognita07/ecgscan/internal/services"
)

type Handler struct {
	secretKey    []byte
	cookieSecure bool
	cookieCodec  *secureCookieCodec
	loginLimiter *attemptLimiter
	i18n         *i18n.Manager
	logger       logrus.FieldLogger

	authService      *services.AuthService
	recordService    *services.RecordService
	queueSelector    *services.QueueSelector
	laudationService *services.LaudationService
	chatService      *services.ChatService
	reportComposer   *services.ReportComposer

	lifecycleMu sync.RWMutex
	lifecycle   context.Context
}

func NewHandler(deps Dependencies, secret string, cookieSecure bool) (*Handler, error) {
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if deps.Auth == nil || deps.Records == nil || deps.Queue == nil || deps.Laudation == nil || deps.Chat == nil || deps.Reports == nil {
		return nil, errors.New("all services are required")
	}

	codec, err := newSecureCookieCodec([]byte(secret))
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Handler{
		secretKey:        []byte(secret),
		cookieSecure:     cookieSecure,
		cookieCodec:      codec,
		loginLimiter:     newAttemptLimiter(),
		i18n:             deps.I18n,
		logger:           logger,
		authService:      deps.Auth,
		recordService:    deps.Records,
		queueSelector:    deps.Queue,
		laudationService: deps.Laudation,
		chatService:      deps.Chat,
		reportComposer:   deps.Reports,
	}, nil
}
