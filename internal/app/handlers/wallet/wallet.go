package wallet

import (
	"context"
	"errors"

	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	walletsvc "tinyhouse/internal/app/services/wallet"
	domainuser "tinyhouse/internal/domain/user"
)

const (
	connectWalletKey    = "wallet.connect"
	disconnectWalletKey = "wallet.disconnect"
)

var ErrWalletRequired = errors.New("wallet: wallet service required")

type ConnectWalletCommand struct {
	Viewer domainuser.Viewer
	Code   string
}

func (ConnectWalletCommand) Key() string { return connectWalletKey }

func (c ConnectWalletCommand) RequiredViewer() domainuser.Viewer { return c.Viewer }

type DisconnectWalletCommand struct {
	Viewer domainuser.Viewer
}

func (DisconnectWalletCommand) Key() string { return disconnectWalletKey }

func (c DisconnectWalletCommand) RequiredViewer() domainuser.Viewer { return c.Viewer }

type Handler struct {
	Wallets *walletsvc.Service
}

func (h *Handler) Connect(ctx context.Context, cmd ConnectWalletCommand) (dto.Viewer, error) {
	if h.Wallets == nil {
		return dto.Viewer{}, ErrWalletRequired
	}
	v, err := h.Wallets.Connect(ctx, cmd.Viewer, cmd.Code)
	if err != nil {
		return dto.Viewer{}, err
	}
	return dto.MapViewer(v), nil
}

func (h *Handler) Disconnect(ctx context.Context, cmd DisconnectWalletCommand) (dto.Viewer, error) {
	if h.Wallets == nil {
		return dto.Viewer{}, ErrWalletRequired
	}
	v, err := h.Wallets.Disconnect(ctx, cmd.Viewer)
	if err != nil {
		return dto.Viewer{}, err
	}
	return dto.MapViewer(v), nil
}

func Register(cmds *commands.Registry, wallets *walletsvc.Service) {
	h := &Handler{Wallets: wallets}
	commands.Register[ConnectWalletCommand, dto.Viewer](cmds, connectWalletKey, commands.HandlerFunc[ConnectWalletCommand, dto.Viewer](h.Connect))
	commands.Register[DisconnectWalletCommand, dto.Viewer](cmds, disconnectWalletKey, commands.HandlerFunc[DisconnectWalletCommand, dto.Viewer](h.Disconnect))
}
