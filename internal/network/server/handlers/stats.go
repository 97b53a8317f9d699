package handlers

import (
	"context"

	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// 排行榜固定返回前 10 名
const leaderboardLimit = 10

// handleGetStats 获取个人战绩。访客和无记录的用户返回空战绩
func (h *Handler) handleGetStats(client types.ClientInterface) {
	empty := protocol.StatsResultPayload{Name: client.GetName()}

	if client.IsGuest() {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, empty))
		return
	}

	stats, err := h.server.GetStats().GetPlayerStats(context.Background(), client.GetUserID())
	if err != nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取战绩失败"))
		return
	}
	if stats == nil {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, empty))
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		Name:   stats.Name,
		Wins:   stats.Wins,
		Losses: stats.Losses,
		Draws:  stats.Draws,
		Score:  stats.Score,
	}))
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface) {
	entries, err := h.server.GetStats().GetLeaderboard(context.Background(), leaderboardLimit)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取排行榜失败"))
		return
	}

	protocolEntries := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		protocolEntries = append(protocolEntries, protocol.LeaderboardEntry{
			Rank:  e.Rank,
			Name:  e.Name,
			Score: e.Score,
		})
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: protocolEntries,
	}))
}

// handleGetOnlineCount 获取在线人数（按需）
func (h *Handler) handleGetOnlineCount(client types.ClientInterface) {
	client.SendMessage(protocol.MustNewMessage(protocol.MsgOnlineCount, protocol.OnlineCountPayload{
		Count: h.server.GetOnlineCount(),
	}))
}
