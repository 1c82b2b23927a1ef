package models

import (
	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nullDec(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(v))
}

func DefaultPlatformSettings() *PlatformSettings {
	return &PlatformSettings{
		Version:                 1,
		Name:                    "Nadec",
		LogoUrl:                 "/images/logo.svg",
		CustomerServiceName:     "Nadec Support",
		CustomerServiceLink:     "https://t.me/example",
		HomeMarqueeText:         "1. Seize this NADEC milk opportunity!",
		AvatarUrls:              []string{"https://i.ibb.co/3s4wz9c/nft-avatar.png"},
		MinWithdrawal:           dec("9"),
		MaxWithdrawal:           dec("99999"),
		WithdrawalFeePercentage: dec("0.5"),
		GlobalWithdrawalLock:    true,
		CommissionRates: CommissionRates{
			1: dec("12"),
			2: dec("2"),
			3: dec("1"),
		},
		RechargeCurrencies: []RechargeCurrency{
			{Id: "usdt", Name: "USDT", Networks: []string{"TRC20", "BEP20", "ERC20", "POLYGON"}},
			{Id: "usdc", Name: "USDC", Networks: []string{"TRC-20", "BEP-20", "ERC-20", "POLYGON"}},
			{Id: "bnb", Name: "BNB", Networks: []string{"BEP20"}},
			{Id: "trx", Name: "TRX", Networks: []string{"TRC20"}},
			{Id: "eth", Name: "ETH", Networks: []string{"ERC20"}},
			{Id: "matic", Name: "MATIC", Networks: []string{"POLYGON"}},
			{Id: "ton", Name: "TON", Networks: []string{"TON"}},
		},
		CurrencyPrices: map[string]decimal.Decimal{
			"USDT": dec("1"),
			"USDC": dec("1"),
		},
		LoginRewards: []LoginReward{
			{Day: 9, Amount: dec("0.88")},
			{Day: 10, Amount: dec("0.88")},
			{Day: 11, Amount: dec("0.88")},
			{Day: 12, Amount: dec("0.88")},
			{Day: 13, Amount: dec("0.88")},
			{Day: 26, Amount: dec("1.88")},
			{Day: 27, Amount: dec("1.88")},
			{Day: 28, Amount: dec("1.88")},
			{Day: 29, Amount: dec("1.88")},
		},
	}
}

func DefaultVipLevels() []VipLevel {
	return []VipLevel{
		{Id: "nadec1", Name: "Nadec1", Tasks: 1, Benefit: dec("4"), DailyProfit: dec("4"), TotalProfit: dec("1460"), UnlockCost: dec("0"), Position: 1},
		{Id: "nadec2", Name: "Nadec2", Tasks: 1, Benefit: dec("9"), DailyProfit: dec("9"), TotalProfit: dec("3285"), UnlockCost: dec("18"), Position: 2},
		{Id: "nadec3", Name: "Nadec3", Tasks: 1, Benefit: dec("40"), DailyProfit: dec("40"), TotalProfit: dec("14600"), UnlockCost: dec("68"), Position: 3},
		{Id: "nadec4", Name: "Nadec4", Tasks: 1, Benefit: dec("124"), DailyProfit: dec("124"), TotalProfit: dec("45260"), UnlockCost: dec("138"), Position: 4},
		{Id: "nadec5", Name: "Nadec5", Tasks: 1, Benefit: dec("328"), DailyProfit: dec("328"), TotalProfit: dec("119720"), UnlockCost: dec("568"), Position: 5},
		{Id: "nadec6", Name: "Nadec6", Tasks: 1, Benefit: dec("688"), DailyProfit: dec("688"), TotalProfit: dec("251120"), UnlockCost: dec("1088"), Position: 6},
		{Id: "nadec7", Name: "Nadec7", Tasks: 1, Benefit: dec("1530"), DailyProfit: dec("1530"), TotalProfit: dec("558450"), UnlockCost: dec("2330"), Position: 7},
	}
}

func DefaultCrawlTasks() []CrawlTask {
	const (
		resistor   = "https://i.ibb.co/L9L6w4b/resistor.png"
		diode      = "https://i.ibb.co/yQJ4c2b/diode.png"
		breadboard = "https://i.ibb.co/Rzbd9k9/breadboard.png"
	)
	return []CrawlTask{
		{SetIndex: 1, Id: "ct_free", Name: "Free Task", ImageSrc: resistor, Price: dec("0"), Income: dec("0.5")},
		{SetIndex: 1, Id: "ct1", Name: "Resistor 330 Ohm", ImageSrc: resistor, Price: dec("21.06"), Income: dec("9.47")},
		{SetIndex: 1, Id: "ct2", Name: "Capacitor 10uF", ImageSrc: resistor, Price: dec("50"), Income: dec("15")},
		{SetIndex: 2, Id: "ct_s2_free", Name: "Free Task Set 2", ImageSrc: diode, Price: dec("0"), Income: dec("1")},
		{SetIndex: 2, Id: "ct_s2_1", Name: "Diode Pack", ImageSrc: diode, Price: dec("75"), Income: dec("25")},
		{SetIndex: 2, Id: "ct_s2_2", Name: "Transistor Kit", ImageSrc: diode, Price: dec("100"), Income: dec("35")},
		{SetIndex: 3, Id: "ct_s3_free", Name: "Free Task Set 3", ImageSrc: breadboard, Price: dec("0"), Income: dec("1.5")},
		{SetIndex: 3, Id: "ct_s3_1", Name: "Breadboard Kit", ImageSrc: breadboard, Price: dec("150"), Income: dec("50")},
		{SetIndex: 3, Id: "ct_s3_2", Name: "Power Supply Module", ImageSrc: breadboard, Price: dec("200"), Income: dec("70")},
	}
}

func DefaultVipCrawlOverrides() []VipCrawlOverride {
	return []VipCrawlOverride{
		{VipLevel: "Nadec2", SetIndex: 1, TaskId: "ct_free", TaskOverride: TaskOverride{Income: nullDec("1.0")}},
	}
}

func DefaultActivities() []Activity {
	return []Activity{
		{Id: "1", Title: "Register and invite A-level members for a fixed reward of up to 288 USDT", Amount: dec("288"),
			TaskContent: "Invite 50 people: 15 USDT. Invite 100 people: 30 USDT. Invite 300 people: 90 USDT. Invite 1000 people: 288 USDT.",
			TaskSteps:   "1. Open Team to get your invitation link.\n2. Share the link on social networks."},
		{Id: "2", Title: "Invite 5 friends within 24 hours who each recharge 18 USDT and get 9 USDT", Amount: dec("9")},
		{Id: "3", Title: "Invite 5 friends within 24 hours who each recharge 198 USDT and get 99 USDT", Amount: dec("99")},
	}
}
