package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/qs-lzh/movie-booking/docs"

	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/middleware"
	"github.com/qs-lzh/movie-booking/internal/model"
)

func NewRouter(a *app.App) *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// a nil *RedisCache must not reach the interface
	var limiter middleware.TokenTaker
	if a.Cache != nil {
		limiter = a.Cache
	}

	r := gin.New()
	r.Use(
		middleware.Logger(a.Logger),
		Recovery(a.Logger),
		ErrorHandler(a.Logger),
		middleware.Timeout(a.Config.ReqTimeout),
		middleware.RateLimit(a.Config.RateLimit, limiter, a.Logger),
	)

	authed := middleware.JWTAuth(a.Tokens)
	admin := middleware.RequireRole(model.RoleAdmin)

	r.GET("/health", Health)
	if !a.Config.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	api := r.Group("/api")

	genres := NewGenreHandler(a)
	g := api.Group("/genres")
	g.GET("", genres.List)
	g.GET("/:id", genres.Get)
	g.POST("", authed, admin, genres.Create)
	g.PUT("/:id", authed, admin, genres.Update)
	g.DELETE("/:id", authed, admin, genres.Delete)

	movies := NewMovieHandler(a)
	m := api.Group("/movies")
	m.GET("", movies.List)
	m.GET("/search", movies.Search)
	m.GET("/by-genre/:genreId", movies.ListByGenre)
	m.GET("/:id", movies.Get)
	m.POST("", authed, admin, movies.Create)
	m.PUT("/:id", authed, admin, movies.Update)
	m.DELETE("/:id", authed, admin, movies.Delete)

	showtimes := NewShowtimeHandler(a)
	s := api.Group("/showtimes")
	s.GET("", showtimes.List)
	s.GET("/by-movie/:movieId", showtimes.ListByMovie)
	s.GET("/:id", showtimes.Get)
	s.POST("", authed, admin, showtimes.Create)
	s.PUT("/:id", authed, admin, showtimes.Update)
	s.DELETE("/:id", authed, admin, showtimes.Delete)

	seats := NewSeatHandler(a)
	st := api.Group("/seats")
	st.GET("/by-showtime/:showtimeId", seats.ListByShowtime)
	st.GET("/available/by-showtime/:showtimeId", seats.ListAvailableByShowtime)
	st.GET("/:id", seats.Get)

	reservations := NewReservationHandler(a)
	rs := api.Group("/reservations", authed)
	rs.GET("/my-reservations", reservations.Mine)
	rs.GET("/by-showtime/:showtimeId", admin, reservations.ListByShowtime)
	rs.GET("/:id", reservations.Get)
	rs.POST("", reservations.Create)
	rs.PUT("/:id/cancel", reservations.Cancel)
	rs.DELETE("/:id", admin, reservations.Delete)

	users := NewUserHandler(a)
	u := api.Group("/users")
	u.POST("/register", users.Register)
	u.POST("/login", users.Login)
	u.GET("/profile", authed, users.Profile)
	u.PUT("/profile", authed, users.UpdateProfile)
	u.GET("", authed, admin, users.List)
	u.GET("/:id", authed, admin, users.Get)
	u.DELETE("/:id", authed, admin, users.Delete)

	return r
}
