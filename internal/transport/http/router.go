package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/logger"
	"github.com/waste3d/edemy-api/internal/middleware"
)

type RouterDeps struct {
	AllowedOrigins []string
	Log            logger.Logger
	Verifier       middleware.TokenVerifier
	Users          UserService
	Educators      EducatorService
	Limiter        *middleware.RateLimiter // nil disables rate limiting

	Course   *CourseHandler
	User     *UserHandler
	Educator *EducatorHandler
	Webhook  *WebhookHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	binding.Validator = &structValidator{validate: domain.Validate}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))
	r.Use(middleware.ErrorHandler(d.Log))

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "API Working") })
	r.POST("/stripe", d.Webhook.Stripe)

	api := r.Group("/api")
	{
		course := api.Group("/course")
		{
			course.GET("/all", d.Course.List)
			course.GET("/:id", d.Course.GetOne)
		}

		user := api.Group("/user")
		user.Use(middleware.AuthMiddleware(d.Verifier), middleware.EnsureUser(d.Users))
		{
			user.GET("/data", d.User.GetData)
			user.GET("/enrolled-courses", d.User.EnrolledCourses)
			user.POST("/purchase", limit(d.Limiter, "purchase", 10, time.Minute), d.User.Purchase)
			user.POST("/add-rating", limit(d.Limiter, "rating", 30, time.Minute), d.User.AddRating)
			user.POST("/update-course-progress", d.User.UpdateProgress)
			user.POST("/get-course-progress", d.User.GetProgress)
		}

		educator := api.Group("/educator")
		educator.Use(middleware.AuthMiddleware(d.Verifier), middleware.EnsureUser(d.Users))
		{
			educator.GET("/update-role", d.Educator.UpdateRole)

			gated := educator.Group("", middleware.RequireEducator(d.Educators))
			gated.POST("/add-course", limit(d.Limiter, "add_course", 5, time.Minute), d.Educator.AddCourse)
			gated.GET("/courses", d.Educator.Courses)
			gated.GET("/dashboard", d.Educator.Dashboard)
			gated.GET("/enrolled-students", d.Educator.EnrolledStudents)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	return config
}

func limit(rl *middleware.RateLimiter, key string, n int, window time.Duration) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Limit(key, n, window)
}

// bindError turns body decoding failures into validation errors. Field
// validation failures pass through and are reported per field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return domain.NewValidationError(errors.New("request body is required"))
	case errors.As(err, &typeErr):
		return domain.NewValidationError(
			errors.Errorf("%s has the wrong type", typeErr.Field),
			domain.FieldError{Field: typeErr.Field, Error: "must be of type " + typeErr.Type.String()},
		)
	case errors.As(err, &syntaxErr):
		return domain.NewValidationError(errors.New("malformed JSON body"))
	default:
		return domain.NewValidationError(err)
	}
}

// structValidator lets gin validate request bodies with the domain's validator,
// so both report the same translated field messages.
type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return v.validate.Struct(obj)
}

func (v *structValidator) Engine() any { return v.validate }
