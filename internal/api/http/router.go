package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quiz-mastro/quizmastro/internal/activity"
	"github.com/quiz-mastro/quizmastro/internal/ai"
	"github.com/quiz-mastro/quizmastro/internal/auth"
	"github.com/quiz-mastro/quizmastro/internal/quiz"
	"github.com/quiz-mastro/quizmastro/internal/rbac"
	"github.com/quiz-mastro/quizmastro/internal/roster"
)

// Deps carries everything the router mounts. AI is optional; when nil the
// generation endpoints answer 503.
type Deps struct {
	Quizzes  *quiz.Service
	Roster   *roster.Registry
	Activity activity.Log
	Auth     *auth.AuthService
	Admin    auth.AdminAccount
	AI       *ai.Client
	Log      *slog.Logger

	CORSOrigins []string
}

// NewRouter assembles the full HTTP surface: public login and health probes,
// then the JWT-protected API with per-route RBAC.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Roster, d.Admin))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		// Quiz lifecycle (teacher)
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", CreateQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:update")).
			Put("/quizzes/{quizID}", UpdateQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:publish")).
			Post("/quizzes/{quizID}/publish", PublishQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:delete")).
			Delete("/quizzes/{quizID}", DeleteQuizHandler(d.Quizzes))

		// Quiz views (both roles; the handlers redact answer keys for students)
		pr.With(rbac.Require("quiz:list")).
			Get("/quizzes", ListQuizzesHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", GetQuizHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}/me", StudentQuizDataHandler(d.Quizzes))

		// Student attempt flow
		pr.With(rbac.Require("attempt:start")).
			Post("/quizzes/{quizID}/attempt/start", StartAttemptHandler(d.Quizzes))
		pr.With(rbac.Require("attempt:save")).
			Post("/quizzes/{quizID}/attempt/answers", SaveAnswerHandler(d.Quizzes))
		pr.With(rbac.Require("attempt:submit")).
			Post("/quizzes/{quizID}/attempt/submit", SubmitAttemptHandler(d.Quizzes))
		pr.With(rbac.RequireOwnerOr("attempt:view-all", IsSubmissionOwner)).
			Get("/quizzes/{quizID}/submissions/{studentID}", GetSubmissionHandler(d.Quizzes))

		// Grading (teacher)
		pr.With(rbac.Require("grading:view")).
			Get("/quizzes/{quizID}/students", ConnectedStudentsHandler(d.Quizzes))
		pr.With(rbac.Require("grading:view")).
			Get("/quizzes/{quizID}/grading", StudentsForGradingHandler(d.Quizzes))
		pr.With(rbac.Require("grading:view")).
			Get("/quizzes/{quizID}/grading/queue", GradingQueueHandler(d.Quizzes))
		pr.With(rbac.Require("grading:view")).
			Get("/quizzes/{quizID}/grading/{studentID}", GetGradingStateHandler(d.Quizzes))
		pr.With(rbac.Require("grading:save")).
			Put("/quizzes/{quizID}/grading/{studentID}", SaveGradingStateHandler(d.Quizzes))
		pr.With(rbac.Require("grading:apply")).
			Post("/quizzes/{quizID}/grading/{studentID}", ApplyGradesHandler(d.Quizzes))
		pr.With(rbac.Require("grading:apply")).
			Post("/quizzes/{quizID}/grading/{studentID}/queue", SetGradingForStudentHandler(d.Quizzes))
		pr.With(rbac.Require("quiz:export")).
			Get("/quizzes/{quizID}/export", ExportGradesHandler(d.Quizzes))

		// Connections and activity
		pr.With(rbac.Require("connections:manage")).
			Post("/connections", AddConnectionHandler(d.Roster))
		pr.With(rbac.Require("connections:manage")).
			Delete("/connections/{connID}", RemoveConnectionHandler(d.Roster))
		pr.With(rbac.RequireAny("connections:view", "connections:manage")).
			Get("/connections", ListConnectionsHandler(d.Roster))
		pr.With(rbac.Require("activity:view")).
			Get("/activity", ActivityFeedHandler(d.Activity))

		// Users
		pr.With(rbac.Require("users:manage")).
			Post("/users", CreateUserHandler(d.Roster))
		pr.With(rbac.Require("users:list")).
			Get("/users", ListUsersHandler(d.Roster))
		pr.With(rbac.Require("users:list")).
			Get("/users/{userID}", GetUserHandler(d.Roster))
		pr.With(rbac.Require("users:manage")).
			Delete("/users/{userID}", DeleteUserHandler(d.Roster))

		// AI generation (teacher)
		if d.AI != nil {
			pr.With(rbac.Require("ai:generate")).
				Post("/ai/generate", GenerateRawHandler(d.AI, d.Log))
			pr.With(rbac.Require("ai:generate")).
				Post("/ai/questions", GenerateQuestionsHandler(d.AI, d.Log))
		} else {
			unavailable := func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "ai generation not configured")
			}
			pr.Post("/ai/generate", unavailable)
			pr.Post("/ai/questions", unavailable)
		}
	})

	return r
}
