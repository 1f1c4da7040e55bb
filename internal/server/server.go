package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"helpdesk/internal/ai"
	"helpdesk/internal/config"
	"helpdesk/internal/handler"
	conversationHandler "helpdesk/internal/handler/conversation"
	orderHandler "helpdesk/internal/handler/order"
	policyHandler "helpdesk/internal/handler/policy"
	"helpdesk/internal/pkg/jwt"
	"helpdesk/internal/pkg/lock"
	"helpdesk/internal/pkg/storagefactory"
	"helpdesk/internal/server/middleware"
	"helpdesk/internal/service"
	supportsvc "helpdesk/internal/service/support"
)

const defaultTokenExpiry = 12 * time.Hour

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	deps   *Deps
	jwt    *jwt.JWT

	supportSvc *supportsvc.Service
	orderSvc   *service.OrderService
	policySvc  *service.PolicyService
}

// New 创建服务器实例
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	deps := OpenDeps(ctx, cfg)

	srv := &Server{
		cfg:    cfg,
		engine: gin.New(),
		deps:   deps,
	}
	if err := srv.setupServices(ctx); err != nil {
		deps.Close(context.Background())
		return nil, err
	}
	srv.setupRoutes()

	return srv, nil
}

// setupServices 组装业务服务
func (s *Server) setupServices(ctx context.Context) error {
	cfg := s.cfg

	s.orderSvc = service.NewOrderService(s.deps.Orders, s.deps.Returns, cfg.Support.ReturnWindow)

	var policyCache service.PolicyCache
	if s.deps.Redis != nil {
		policyCache = s.deps.Redis
	}
	s.policySvc = service.NewPolicyService(s.deps.Policies, policyCache, cfg.Support.PolicyCacheTTL)

	aiClient := ai.NewClientFromConfig(ctx, cfg)
	log.Info().
		Str("provider", aiClient.Provider()).
		Bool("available", aiClient.Available()).
		Int("max_tokens", cfg.LLM.MaxTokens).
		Dur("timeout", cfg.LLM.Timeout).
		Msg("LLM client initialized")

	orchestrator := supportsvc.NewOrchestrator(
		aiClient,
		supportsvc.NewContextBuilder(s.deps.Messages),
		s.orderSvc,
		s.policySvc,
	)

	opts := []supportsvc.Option{}
	if s.deps.Redis != nil {
		opts = append(opts, supportsvc.WithLocker(lock.NewRedisLocker(s.deps.Redis.Client(), cfg.Support.LockTTL)))
		log.Info().Msg("using Redis conversation lock")
	}

	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("init transcript storage: %w", err)
	}
	if store != nil {
		opts = append(opts, supportsvc.WithArchiver(supportsvc.NewTranscriptArchiver(store)))
		log.Info().Str("type", string(store.Kind())).Msg("transcript archive enabled")
	}

	s.supportSvc = supportsvc.NewService(s.deps.Conversations, s.deps.Messages, orchestrator, opts...)

	if cfg.Auth.JWTSecret != "" {
		expiry := cfg.Auth.TokenExpiry
		if expiry <= 0 {
			expiry = defaultTokenExpiry
		}
		s.jwt = jwt.NewJWT(cfg.Auth.JWTSecret, expiry)
	} else {
		log.Warn().Msg("JWT secret not configured, agent endpoints are NOT authenticated")
	}

	return nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.deps.Pingers())
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	agentAuth := middleware.AgentAuth(s.jwt)

	// 本地归档的聊天记录只对坐席开放
	if s.cfg.Storage.Type == "local" && s.cfg.Storage.Local != nil {
		files := s.engine.Group("/files", agentAuth)
		files.Static("/", s.cfg.Storage.Local.BasePath)
	}

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		convHdl := conversationHandler.NewHandler(s.supportSvc)
		conversations := v1.Group("/conversations")
		{
			conversations.POST("", convHdl.CreateConversation)
			conversations.GET("/:id", convHdl.GetConversation)
			conversations.DELETE("/:id", convHdl.DeleteConversation)
			conversations.POST("/:id/messages", convHdl.SendMessage)
			conversations.POST("/:id/escalate", convHdl.Escalate)

			// 坐席接口
			conversations.POST("/:id/assign", agentAuth, convHdl.Assign)
			conversations.POST("/:id/agent/messages", agentAuth, convHdl.SendAgentMessage)
			conversations.POST("/:id/resolve", agentAuth, convHdl.Resolve)
		}

		orderHdl := orderHandler.NewHandler(s.orderSvc)
		v1.GET("/orders/:order_id/status", orderHdl.GetOrderStatus)
		v1.GET("/returns/check-eligibility/:order_id", orderHdl.CheckReturnEligibility)
		v1.POST("/returns", orderHdl.CreateReturn)
		v1.GET("/returns/:return_id", orderHdl.GetReturn)

		policyHdl := policyHandler.NewHandler(s.policySvc)
		v1.GET("/policies", policyHdl.ListPolicies)
		v1.GET("/policies/:policy_type", policyHdl.GetPolicy)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// 先停止接收请求，再关闭连接
		err := srv.Shutdown(shutdownCtx)
		s.deps.Close(shutdownCtx)
		return err
	case err := <-errCh:
		s.deps.Close(context.Background())
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SupportService 获取客服会话服务
func (s *Server) SupportService() *supportsvc.Service {
	return s.supportSvc
}
