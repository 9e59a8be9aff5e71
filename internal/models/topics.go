package models

// StarterTopics is the built-in catalog seeded on first boot. Keywords
// are upserted with ON CONFLICT DO NOTHING, so operator edits survive
// restarts.
var StarterTopics = []Topic{
	{Keyword: "personalised birthday gifts", Category: "birthday", Title: "Personalised Birthday Gifts They'll Actually Keep", Angle: "emotional keepsake beats another gadget", SearchVolume: 9900},
	{Keyword: "last minute birthday gifts", Category: "birthday", Title: "Last Minute Birthday Gifts That Don't Look Last Minute", Angle: "panic-buy rescue with next-day options", SearchVolume: 6600},
	{Keyword: "30th birthday gift ideas", Category: "birthday", Title: "30th Birthday Gifts Beyond the Big Number Balloon", Angle: "milestone birthdays deserve more than novelty", SearchVolume: 5400},
	{Keyword: "wedding gifts for couples", Category: "wedding", Title: "Wedding Gifts the Couple Won't Quietly Return", Angle: "skip the registry, bring something theirs", SearchVolume: 8100},
	{Keyword: "personalised wedding gifts", Category: "wedding", Title: "Personalised Wedding Gifts for the Big Day", Angle: "names and dates make it a keepsake", SearchVolume: 4400},
	{Keyword: "anniversary gifts for him", Category: "anniversary", Title: "Anniversary Gifts for Him That Beat Socks", Angle: "thoughtful wins over practical", SearchVolume: 7400},
	{Keyword: "first anniversary gift", Category: "anniversary", Title: "First Anniversary Gifts: The Paper Year Done Right", Angle: "traditional themes with a modern twist", SearchVolume: 3600},
	{Keyword: "stocking fillers", Category: "christmas", Title: "Stocking Fillers That Don't End Up in the Bin", Angle: "small but considered", SearchVolume: 12100},
	{Keyword: "christmas gifts for mum", Category: "christmas", Title: "Christmas Gifts for Mum She'll Talk About All Year", Angle: "for the woman who insists she needs nothing", SearchVolume: 9900},
	{Keyword: "secret santa ideas", Category: "christmas", Title: "Secret Santa Ideas Under £15 That Feel Pricier", Angle: "budget picks that don't look it", SearchVolume: 8100},
	{Keyword: "mothers day gift ideas", Category: "mothers day", Title: "Mother's Day Gifts Beyond the Bouquet", Angle: "outlasts the flowers by months", SearchVolume: 14800},
	{Keyword: "fathers day gifts", Category: "fathers day", Title: "Father's Day Gifts for Dads Who Buy Everything First", Angle: "the impossible-to-shop-for dad", SearchVolume: 12100},
	{Keyword: "valentines gifts for her", Category: "valentines", Title: "Valentine's Gifts for Her That Aren't Clichés", Angle: "romance without the giant teddy", SearchVolume: 6600},
	{Keyword: "personalised gifts", Category: "personalised", Title: "Personalised Gifts That Show You Actually Thought", Angle: "a name turns an object into a memory", SearchVolume: 22200},
	{Keyword: "gifts for grandparents", Category: "personalised", Title: "Gifts for Grandparents Who Treasure Everything", Angle: "memory gifts over merchandise", SearchVolume: 4400},
	{Keyword: "housewarming gifts", Category: "personalised", Title: "Housewarming Gifts Better Than Another Candle", Angle: "first-home keepsakes", SearchVolume: 5400},
	{Keyword: "long distance friendship gifts", Category: "personalised", Title: "Gifts That Shrink the Distance", Angle: "for the friend who moved away", SearchVolume: 2900},
	{Keyword: "gifts for new parents", Category: "personalised", Title: "Gifts for New Parents (Not the Baby)", Angle: "everyone brings babygrows, look after the grown-ups", SearchVolume: 3600},
}
