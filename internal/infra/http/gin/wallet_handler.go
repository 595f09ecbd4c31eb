package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	walletapp "tinyhouse/internal/app/handlers/wallet"
)

type WalletHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type connectWalletRequest struct {
	Code string `json:"code"`
}

func (h WalletHandler) Connect(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, "wallet handler")
		return
	}
	var req connectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid wallet payload")
		return
	}
	cmd := walletapp.ConnectWalletCommand{Viewer: currentViewer(c), Code: req.Code}
	v, err := commands.Dispatch[walletapp.ConnectWalletCommand, dto.Viewer](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h WalletHandler) Disconnect(c *gin.Context) {
	if h.Commands == nil {
		unavailable(c, "wallet handler")
		return
	}
	cmd := walletapp.DisconnectWalletCommand{Viewer: currentViewer(c)}
	v, err := commands.Dispatch[walletapp.DisconnectWalletCommand, dto.Viewer](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

var _ WalletHTTP = WalletHandler{}
