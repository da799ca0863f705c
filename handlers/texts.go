package handlers

import (
	"fmt"
	"strings"

	"earnquest-bot/messenger"
	"earnquest-bot/models"
)

const botHandle = "@EarnQuestBot"

const (
	textLoginFirst        = "🔐 Please /login first!"
	textLoggingIn         = "🔄 Logging in..."
	textLoginConnError    = "❌ Connection error. Please try again later."
	textCreatingAccount   = "🔄 Creating account..."
	textRegisterConnError = "❌ Connection error. Please try later."
	textBalanceFailed     = "❌ Failed to fetch balance. Try /login again."
	textStatsFailed       = "❌ Failed to fetch stats."
	textReferralFailed    = "❌ Failed to fetch referral info."
	textLeaderboardFailed = "❌ Failed to fetch leaderboard."
	textLoadingOfferwalls = "🔄 Loading offerwalls..."
	textOfferwallsFailed  = "❌ Failed to fetch offerwalls. Try again later."
	textLoadingTasks      = "🔄 Loading tasks..."
	textTasksFailed       = "❌ Failed to fetch tasks. Try again later."
	textSupportInGroup    = "🆘 For support, please DM me: " + botHandle
	textLoginInGroup      = "🔐 Please login in private chat: " + botHandle
	textRegisterInGroup   = "📝 Please register in private chat: " + botHandle
	textSupportMenu       = "🆘 **EarnQuest Support**\n\nWhat do you need help with?"
	textSupportShortMenu  = "🆘 **Support**\n\nWhat do you need help with?"
	textFAQMenu           = "❓ **Frequently Asked Questions**\n\nSelect a topic:"
)

func groupCard(website string) string {
	return "🤖 **EarnQuest Bot**\n\n" +
		"I'm here to help and keep this group clean!\n\n" +
		"🌐 Start earning: " + website + "\n" +
		"💬 DM me for account features"
}

func privateWelcome(firstName string) string {
	return "\n🎉 **Welcome to EarnQuest, " + firstName + "!**\n\n" +
		"Earn money by completing tasks, surveys, and offers!\n\n" +
		"**💰 Earning Options:**\n" +
		"• 🎯 Offerwalls - Complete offers & surveys\n" +
		"• 📝 Tasks - Simple tasks for quick cash\n" +
		"• 👥 Referrals - Earn 10% from friends\n\n" +
		"**Quick Commands:**\n" +
		"/offerwalls - Browse earning opportunities  \n" +
		"/tasks - View available tasks\n" +
		"/balance - Check your earnings\n" +
		"/referral - Get your referral link\n\n" +
		"_Tap a button below to get started!_\n"
}

func startKeyboard(website string) messenger.Keyboard {
	return messenger.Keyboard{
		{messenger.DataButton("🔐 Login", "start_login"), messenger.DataButton("📝 Register", "start_register")},
		{messenger.DataButton("💰 Balance", "cmd_balance"), messenger.DataButton("📊 Stats", "cmd_stats")},
		{messenger.DataButton("🎯 Offerwalls", "cmd_offerwalls"), messenger.DataButton("📝 Tasks", "cmd_tasks")},
		{messenger.DataButton("👥 Referral", "cmd_referral"), messenger.DataButton("🏆 Leaderboard", "cmd_leaderboard")},
		{messenger.DataButton("🆘 Support", "cmd_support"), messenger.DataButton("❓ FAQ", "cmd_faq")},
		{messenger.URLButton("🌐 Visit Website", website)},
	}
}

func welcomeMember(firstName, rendered string) string {
	return "👋 Welcome " + firstName + "!\n\n" + rendered
}

func loginSuccess(username string) string {
	return "✅ **Welcome back, " + username + "!**\n\n" +
		"Use /balance to check your earnings\n" +
		"Use /referral to get your referral link\n" +
		"Use /support if you need help"
}

func registerSuccess(username string) string {
	return "🎉 **Welcome to EarnQuest, " + username + "!**\n\n" +
		"💰 You received a **$0.10 welcome bonus!**\n\n" +
		"📧 Check your email to verify your account.\n\n" +
		"Use /login to access your account."
}

func balanceText(p models.Profile, website string) string {
	level := p.Level
	if level == "" {
		level = "Bronze"
	}
	status := "✅ Ready to withdraw!"
	if !p.WithdrawalInfo.CanWithdraw {
		status = fmt.Sprintf("⏳ Need $%.2f more qualifying earnings", float64(p.WithdrawalInfo.RemainingToUnlock))
	}
	return fmt.Sprintf("💰 **Your Balance**\n\n"+
		"**Balance:** $%.2f\n"+
		"**Total Earned:** $%.2f\n"+
		"**Qualifying:** $%.2f\n"+
		"**Referral Earnings:** $%.2f\n"+
		"**Level:** %s\n\n"+
		"**Withdrawal:** %s\n\n"+
		"🌐 Withdraw at: %s/withdraw",
		float64(p.CurrentBalance), float64(p.TotalEarned), float64(p.QualifyingEarnings),
		float64(p.ReferralEarnings), level, status, website)
}

func statsText(s models.DashboardStats, website string) string {
	return fmt.Sprintf("📊 **Your Statistics**\n\n"+
		"💵 Balance: $%.2f\n"+
		"💰 Total Earned: $%.2f\n"+
		"📈 Today: $%.2f\n"+
		"✅ Tasks: %d\n"+
		"🔥 Streak: %d days\n"+
		"👥 Referrals: %d\n"+
		"💎 Ref Earnings: $%.2f\n\n"+
		"🌐 %s/dashboard",
		float64(s.Balance), float64(s.TotalEarned), float64(s.TodayEarnings),
		s.TotalTasks, s.StreakDays, s.ReferralStats.TotalReferrals,
		float64(s.ReferralStats.Earnings), website)
}

func referralText(r models.ReferralInfo) string {
	code := orNA(r.ReferralCode)
	link := orNA(r.ReferralURL)
	return fmt.Sprintf("👥 **Your Referral Program**\n\n"+
		"📋 Code: `%s`\n\n"+
		"🔗 Link:\n%s\n\n"+
		"📊 **Stats:**\n"+
		"• Referrals: %d\n"+
		"• Earnings: $%.2f\n\n"+
		"💰 **Earn 10%% of all your referrals' earnings!**",
		code, link, r.TotalReferrals, float64(r.ReferralEarnings))
}

var medals = []string{"🥇", "🥈", "🥉", "🏅", "🏅", "🏅", "🏅", "🏅", "🏅", "🏅"}

func leaderboardText(top []models.Earner, website string) string {
	var b strings.Builder
	b.WriteString("🏆 **Top Earners**\n\n")
	for i, e := range top {
		if i >= len(medals) {
			break
		}
		fmt.Fprintf(&b, "%s %s - $%.2f\n", medals[i], e.Username, float64(e.Earnings))
	}
	b.WriteString("\n🌐 " + website + "/leaderboard")
	return b.String()
}

func offerwallsLoginText(website string) string {
	return "🔐 **Login Required**\n\n" +
		"Please /login to access offerwalls and start earning!\n\n" +
		"Or visit: " + website + "/offerwalls"
}

func offerwallsEmptyText(website string) string {
	return "📭 **No Offerwalls Available**\n\n" +
		"Check back later or visit: " + website + "/offerwalls"
}

const maxOfferwalls = 10

func offerwallsText(walls []models.Offerwall, website string) (string, messenger.Keyboard) {
	var (
		b        strings.Builder
		keyboard messenger.Keyboard
	)
	b.WriteString("🎯 **Available Offerwalls**\n\n")
	b.WriteString("Complete offers & surveys to earn money!\n\n")

	for i, w := range walls {
		if i >= maxOfferwalls {
			break
		}
		status := "✅"
		if !w.Active() {
			status = "⏸️"
		}
		name := w.DisplayName()
		b.WriteString(status + " **" + name + "**")
		if w.Provider != "" {
			b.WriteString(" (" + w.Provider + ")")
		}
		b.WriteString("\n")
		if w.ID != "" {
			keyboard = append(keyboard, []messenger.Button{
				messenger.URLButton("🎯 "+name, website+"/offerwalls?wall="+string(w.ID)),
			})
		}
	}
	b.WriteString("\n💡 _Tip: Click a button below to start earning!_")
	keyboard = append(keyboard, []messenger.Button{messenger.URLButton("🌐 View All Offerwalls", website+"/offerwalls")})
	return b.String(), keyboard
}

func tasksLoginText(website string) string {
	return "🔐 **Login Required**\n\n" +
		"Please /login to view and complete tasks!\n\n" +
		"Or visit: " + website + "/tasks"
}

func tasksEmptyText(website string) string {
	return "📭 **No Tasks Available**\n\n" +
		"Check back later for new earning opportunities!\n\n" +
		"🎯 Try offerwalls instead: /offerwalls\n" +
		"🌐 " + website + "/tasks"
}

const topTasks = 5

func tasksText(tasks []models.Task, website string) (string, messenger.Keyboard) {
	var total float64
	for _, t := range tasks {
		total += t.Payout()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 **Available Tasks: %d**\n\n", len(tasks))
	fmt.Fprintf(&b, "💰 Total Potential: $%.2f\n\n", total)
	b.WriteString("**Top Tasks:**\n")
	for i, t := range tasks {
		if i >= topTasks {
			break
		}
		title := []rune(t.DisplayTitle())
		if len(title) > 40 {
			title = title[:40]
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, string(title))
		fmt.Fprintf(&b, "   💵 $%.2f", t.Payout())
		if cat := t.CategoryName(); cat != "" {
			b.WriteString(" | 📂 " + cat)
		}
		b.WriteString("\n")
	}
	if len(tasks) > topTasks {
		fmt.Fprintf(&b, "\n_...and %d more tasks!_\n", len(tasks)-topTasks)
	}
	b.WriteString("\n💡 _Complete tasks on our website to earn!_")

	keyboard := messenger.Keyboard{
		{messenger.URLButton("📝 View All Tasks", website+"/tasks")},
		{messenger.DataButton("🎯 Offerwalls", "cmd_offerwalls"), messenger.DataButton("💰 Balance", "cmd_balance")},
	}
	return b.String(), keyboard
}

func surveysText(loggedIn bool, website string) (string, messenger.Keyboard) {
	msg := "📊 **Surveys on EarnQuest**\n\n" +
		"Surveys are available through our offerwalls!\n\n" +
		"**Popular Survey Providers:**\n" +
		"• Bitlabs - High payouts\n" +
		"• CPX Research - Many opportunities\n" +
		"• Pollfish - Quick surveys\n" +
		"• Theorem Reach - Regular surveys\n\n" +
		"**Tips for Surveys:**\n" +
		"✅ Fill out your profile completely\n" +
		"✅ Be consistent with answers\n" +
		"✅ Use a desktop for best experience\n" +
		"✅ Check multiple providers\n\n"

	keyboard := messenger.Keyboard{{messenger.URLButton("🎯 Go to Offerwalls", website+"/offerwalls")}}
	if loggedIn {
		keyboard = append(messenger.Keyboard{{messenger.DataButton("🎯 View Offerwalls", "cmd_offerwalls")}}, keyboard...)
	} else {
		msg += "🔐 /login to access surveys!"
	}
	return msg, keyboard
}

func supportKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		{messenger.DataButton("💰 Withdrawal Issue", "support_withdrawal")},
		{messenger.DataButton("📝 Task Problem", "support_task")},
		{messenger.DataButton("🔐 Account Issue", "support_account")},
		{messenger.DataButton("🐛 Bug Report", "support_bug")},
		{messenger.DataButton("❓ Other", "support_other")},
	}
}

func supportShortKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		{messenger.DataButton("💰 Withdrawal", "support_withdrawal")},
		{messenger.DataButton("📝 Task", "support_task")},
		{messenger.DataButton("🔐 Account", "support_account")},
		{messenger.DataButton("❓ Other", "support_other")},
	}
}

func ticketCreated(id, title, website string) string {
	return "✅ **Ticket Created!**\n\n" +
		"**Ticket ID:** #" + id + "\n" +
		"**Category:** " + title + "\n\n" +
		"We'll respond within 24-48 hours.\n" +
		"Check status at: " + website + "/support"
}

func messageReceived(email, website string) string {
	return "✅ **Message Received!**\n\n" +
		"Our team will review your message.\n\n" +
		"📧 You can also email: " + email + "\n" +
		"🌐 Or visit: " + website + "/support"
}

func faqKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		{messenger.DataButton("🎯 Offerwalls", "faq_offerwall"), messenger.DataButton("📝 Tasks", "faq_task")},
		{messenger.DataButton("💰 Withdrawals", "faq_withdraw"), messenger.DataButton("📊 Minimum", "faq_minimum")},
		{messenger.DataButton("👥 Referrals", "faq_referral"), messenger.DataButton("🚿 Faucet", "faq_faucet")},
		{messenger.DataButton("💵 How to Earn", "faq_earn"), messenger.DataButton("🚀 Getting Started", "faq_start")},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
