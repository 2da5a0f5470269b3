package routes

import (
	"net/http"

	"rentflow/constants"
	"rentflow/controllers"
	_ "rentflow/docs"
	middlewares "rentflow/middleware"
	"rentflow/services"
	"rentflow/services/notification"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRoutes(router *gin.Engine, reservationController *controllers.ReservationController, secret []byte, m *melody.Melody) {
	auth := func(roles ...int) gin.HandlerFunc {
		return middlewares.AuthMiddleware(secret, roles...)
	}
	tenant := constants.RoleTenant
	advertiser := constants.RoleAdvertiser
	admin := constants.RoleAdmin

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")

	v1.POST("/reservations", auth(tenant), reservationController.CreateReservation)
	v1.GET("/reservations", auth(), reservationController.ListReservations)
	v1.GET("/reservations/:id", auth(), reservationController.GetReservation)
	v1.GET("/reservations/:id/events", auth(), reservationController.GetReservationEvents)
	v1.GET("/reservations/:id/refund-quote", auth(tenant, admin), reservationController.GetRefundQuote)

	v1.PUT("/reservations/:id/accept", auth(advertiser), reservationController.AcceptReservation())
	v1.PUT("/reservations/:id/reject", auth(advertiser), reservationController.RejectReservation())
	v1.PUT("/reservations/:id/pay", auth(tenant), reservationController.ConfirmPayment())
	v1.PUT("/reservations/:id/move-in", auth(tenant), reservationController.ConfirmMoveIn())
	v1.POST("/reservations/:id/cancellation", auth(tenant), reservationController.SubmitCancellation)
	v1.POST("/reservations/:id/refund-request", auth(tenant), reservationController.SubmitRefundRequest)

	adminGroup := v1.Group("/admin", auth(), middlewares.RoleMiddleware(admin))
	adminGroup.PUT("/reservations/:id/expire", reservationController.ExpireReservation())
	adminGroup.PUT("/reservations/:id/cancellation/approve", reservationController.ApproveCancellation())
	adminGroup.PUT("/reservations/:id/cancellation/decline", reservationController.DeclineCancellation())
	adminGroup.PUT("/reservations/:id/refund/settle", reservationController.SettleRefund)

	//ws
	v1.GET("/ws", func(c *gin.Context) {
		token := c.Query("token")
		claims, err := services.ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		keys := map[string]interface{}{notification.SessionUserKey: claims.UserID}
		if err := m.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
		}
	})
}
