package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/progress"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/queue"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	publisher   *queue.Publisher
	mailer      *queue.Mailer
	redisClient *redis.Client
	progress    *progress.Store

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mqCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	publisher := queue.NewPublisher(mqCh, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		publisher:   publisher,
		mailer:      queue.NewMailer(publisher, cfg.RabbitMQ.MailQueue),
		redisClient: rdb,
		progress:    progress.NewStoreFromConfig(rdb, cfg),

		Mux: chi.NewRouter(),
	}, nil
}

// publish 将消息投递到指定的队列
func (h *Handler) publish(name string, v any) error {
	return h.publisher.Publish(context.Background(), name, v)
}

// sendMail 与 worker 共用同一张邮件类型表，请求结束后邮件仍会被投递
func (h *Handler) sendMail(mailType, to string, data any) error {
	return h.mailer.Send(context.Background(), mailType, to, data)
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	planner := h.RequiredRole(domain.RolePlanner)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Get("/seating-jobs", h.GetMySeatingJobs)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(planner).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(planner).Patch("/", h.UpdateUser)
				r.With(planner).Delete("/", h.DeleteUser)
			})
		})

		r.Route("/desks", func(r chi.Router) {
			r.Get("/", h.GetAllDesks)
			r.Get("/floor", h.GetFloorPlan)
			r.With(planner).Put("/", h.ReplaceDesks)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.GetAllEmployees)
			r.With(planner).Put("/", h.SetTodayRoster)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.employee)
				r.Get("/", h.GetEmployee)
				r.With(planner).Patch("/", h.UpdateEmployee)
				r.With(planner).Delete("/", h.DeleteEmployee)
			})
		})

		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", h.GetAllConflicts)
			r.With(planner).Post("/", h.CreateConflict)
			r.With(planner).Delete("/{id}", h.DeleteConflict)
		})

		r.Route("/seating-jobs", func(r chi.Router) {
			r.With(planner).With(h.myInfo).Post("/", h.CreateSeatingJob)
			r.Get("/", h.GetAllSeatingJobs)
			r.With(h.seatingJob).Get("/{id}", h.GetSeatingJob)
			r.With(planner, h.myInfo, h.seatingJob, h.ownSeatingJob).Delete("/{id}", h.CancelSeatingJob)
		})

		r.Route("/seating-layouts", func(r chi.Router) {
			r.Get("/", h.GetAllSeatingLayouts)
			r.Route("/{option}", func(r chi.Router) {
				r.Use(h.seatingLayout)
				r.Get("/", h.GetSeatingLayout)
				r.Get("/render", h.RenderSeatingLayout)
				r.With(planner).Delete("/", h.DeleteSeatingLayout)
			})
		})
	})
}
