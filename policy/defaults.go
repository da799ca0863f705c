package policy

import "earnquest-bot/models"

// DefaultSnapshot returns the moderation settings used until the first successful refresh.
func DefaultSnapshot() models.PolicySnapshot {
	return models.PolicySnapshot{
		AllowLinks:           false,
		AllowForwards:        true,
		MaxMessagesPerMinute: 5,
		MuteDurationMinutes:  30,
		AutoDeleteLinks:      true,
		WelcomeTemplate:      "👋 Welcome to EarnQuest! Earn money completing tasks at {website}",
		RulesTemplate:        "📜 **Group Rules:**\n1. No spam\n2. No links\n3. Be respectful\n4. English only",
		KnowledgeBase:        DefaultKnowledgeBase(),
	}
}

// DefaultKnowledgeBase returns the built-in FAQ answers in their canonical order.
func DefaultKnowledgeBase() models.KnowledgeBase {
	return models.KnowledgeBase{
		{Topic: "withdraw", Template: "💰 **Withdrawals** are done on our website: {website}/withdraw\n\nMinimum varies by method. You need $1.00 in qualifying earnings (tasks/surveys - referral & faucet don't count)."},
		{Topic: "faucet", Template: "🚿 **Faucet** lets you claim free rewards every few minutes!\n\nVisit: {website}/rewards"},
		{Topic: "referral", Template: "👥 **Referral Program**\n\n• Earn 10% of all your referrals' earnings!\n• Both get $0.10 signup bonus\n\nGet your link: Use /referral or visit {website}/rewards"},
		{Topic: "task", Template: "📝 **Tasks** are available at {website}/tasks\n\nComplete tasks, submit proof, and earn money!\n\nUse /tasks to see available tasks!"},
		{Topic: "survey", Template: "📊 **Surveys** are on our offerwalls: {website}/offerwalls\n\nMultiple providers = more opportunities!\n\nUse /surveys or /offerwalls to see options!"},
		{Topic: "offerwall", Template: "🎯 **Offerwalls** let you earn by:\n\n• Completing surveys\n• Downloading apps\n• Signing up for services\n• Watching videos\n\nUse /offerwalls to browse!\n\nVisit: {website}/offerwalls"},
		{Topic: "offer", Template: "🎯 **Offers & Surveys**\n\nEarn money completing offers on our offerwalls!\n\nUse /offerwalls to see all providers\nVisit: {website}/offerwalls"},
		{Topic: "payment", Template: "💳 We support: PayPal, USDT, Litecoin, Skrill, and more!\n\nCheck methods at: {website}/withdraw"},
		{Topic: "help", Template: "🆘 Need help?\n\n• Use /support in private chat\n• Email: {email}\n• Visit: {website}/help"},
		{Topic: "earn", Template: "💵 **Ways to Earn:**\n\n1. 🎯 Offerwalls - /offerwalls\n2. 📝 Tasks - /tasks\n3. 👥 Referrals - /referral\n4. 🚿 Faucet - {website}/rewards\n5. 🎁 Bonus codes\n\nStart at: {website}"},
		{Topic: "minimum", Template: "📊 **Withdrawal Minimum**\n\nYou need $1.00 in qualifying earnings.\n\n⚠️ Referral & faucet earnings don't count!\nOnly tasks, surveys, and offerwalls count."},
		{Topic: "balance", Template: "💰 Check your balance:\n\n• Use /balance in private chat\n• Visit: {website}/dashboard"},
		{Topic: "login", Template: "🔐 To login:\n\n• Use /login in private chat\n• Or visit: {website}/signin"},
		{Topic: "register", Template: "📝 To register:\n\n• Use /register in private chat\n• Or visit: {website}/register"},
		{Topic: "start", Template: "🚀 **Getting Started:**\n\n1. /register or /login\n2. /offerwalls to earn\n3. /tasks for quick tasks\n4. /referral to invite friends\n5. /balance to check earnings"},
	}
}
