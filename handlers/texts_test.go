package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"earnquest-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardText(t *testing.T) {
	top := []models.Earner{{Username: "a", Earnings: 10}, {Username: "b", Earnings: 5.5}, {Username: "c"}, {Username: "d", Earnings: 1}}
	text := leaderboardText(top, website)
	assert.Equal(t, "🏆 **Top Earners**\n\n🥇 a - $10.00\n🥈 b - $5.50\n🥉 c - $0.00\n🏅 d - $1.00\n\n🌐 "+website+"/leaderboard", text)
}

func TestReferralTextDefaults(t *testing.T) {
	text := referralText(models.ReferralInfo{})
	assert.Contains(t, text, "📋 Code: `N/A`")
	assert.Contains(t, text, "🔗 Link:\nN/A")
	assert.Contains(t, text, "Earn 10% of all")
}

func TestBalanceReady(t *testing.T) {
	p := models.Profile{Level: "Gold"}
	p.WithdrawalInfo.CanWithdraw = true
	text := balanceText(p, website)
	assert.Contains(t, text, "**Withdrawal:** ✅ Ready to withdraw!")
	assert.Contains(t, text, "**Level:** Gold")
	assert.True(t, strings.HasSuffix(text, website+"/withdraw"))
}

func TestTasksText(t *testing.T) {
	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(`[
		{"title": "Follow our page and leave a thoughtful comment on the last post", "reward": "0.25", "category": {"name": "Social"}},
		{"name": "Watch video", "amount": 0.1, "category": "Video"},
		{"title": "t3"}, {"title": "t4"}, {"title": "t5"}, {"title": "t6", "reward": 1}
	]`), &tasks))

	text, kb := tasksText(tasks, website)
	assert.Contains(t, text, "📝 **Available Tasks: 6**")
	assert.Contains(t, text, "💰 Total Potential: $1.35")
	assert.Contains(t, text, "1. Follow our page and leave a thoughtful c\n   💵 $0.25 | 📂 Social\n")
	assert.Contains(t, text, "2. Watch video\n   💵 $0.10 | 📂 Video\n")
	assert.NotContains(t, text, "t6")
	assert.Contains(t, text, "_...and 1 more tasks!_")
	require.Len(t, kb, 2)
	assert.Equal(t, "cmd_balance", kb[1][1].Data)
}

func TestSurveysKeyboard(t *testing.T) {
	text, kb := surveysText(false, website)
	assert.True(t, strings.HasSuffix(text, "🔐 /login to access surveys!"))
	require.Len(t, kb, 1)

	text, kb = surveysText(true, website)
	assert.NotContains(t, text, "/login")
	require.Len(t, kb, 2)
	assert.Equal(t, "cmd_offerwalls", kb[0][0].Data)
}
