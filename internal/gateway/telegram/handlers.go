package telegram

import (
	"context"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/pkg/logx"
)

const handlerTimeout = 10 * time.Second

func (g *Gateway) registerHandlers() {
	g.bot.Handle("/start", g.handleStart)
	g.bot.Handle("/help", g.handleStart)
	g.bot.Handle("/remind", g.handleRemind)
	g.bot.Handle("/list", g.handleList)
	g.bot.Handle("/clear", g.handleClear)
}

func (g *Gateway) handleStart(c tele.Context) error {
	return c.Send(helpText)
}

func (g *Gateway) handleRemind(c tele.Context) error {
	userID := senderID(c)
	if userID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	r, err := g.store.Create(ctx, platformID, userID, c.Message().Payload)
	if err != nil {
		g.log.Debug("remind rejected", logx.String("user_id", userID), logx.Err(err))
		return c.Send(creationErrorText(err))
	}
	g.log.Info("reminder created",
		logx.Int64("reminder_id", r.ID),
		logx.String("user_id", userID),
		logx.Time("due_at", r.DueAt),
	)
	return c.Send(formatConfirm(r))
}

func (g *Gateway) handleList(c tele.Context) error {
	userID := senderID(c)
	if userID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	active, err := g.store.ListActive(ctx, platformID, userID)
	if err != nil {
		g.log.Error("list failed", logx.String("user_id", userID), logx.Err(err))
		return c.Send(storeErrorText)
	}
	return c.Send(formatList(active))
}

func (g *Gateway) handleClear(c tele.Context) error {
	userID := senderID(c)
	if userID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	n, err := g.store.ClearActive(ctx, platformID, userID)
	if err != nil {
		g.log.Error("clear failed", logx.String("user_id", userID), logx.Err(err))
		return c.Send(storeErrorText)
	}
	g.log.Info("reminders cleared", logx.String("user_id", userID), logx.Int64("count", n))
	return c.Send(formatClear(n))
}

func senderID(c tele.Context) string {
	s := c.Sender()
	if s == nil {
		return ""
	}
	return strconv.FormatInt(s.ID, 10)
}
