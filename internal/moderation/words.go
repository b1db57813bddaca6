package moderation

// Built-in term lists. Matching is case-insensitive and whole-word; the
// first hit in list order is reported.
var profanityWords = []string{
	"fuck",
	"shit",
	"ass",
	"bitch",
	"damn",
	"cunt",
	"dick",
	"piss",
	"cock",
	"bastard",
	"slut",
	"whore",
	"nigger",
	"nigga",
	"faggot",
	"retard",
	"motherfucker",
	"asshole",
	"bullshit",
	"horseshit",
	"dumbass",
	"jackass",
	"shithead",
	"fuckface",
	"dickhead",
}

var politicalKeywords = []string{
	"democrat",
	"republican",
	"liberal",
	"conservative",
	"trump",
	"biden",
	"maga",
	"woke",
	"antifa",
	"socialism",
	"communism",
	"fascism",
	"leftist",
	"right-wing",
	"left-wing",
	"alt-right",
	"marxist",
	"capitalist",
	"pro-life",
	"pro-choice",
	"gun control",
	"second amendment",
	"immigration ban",
	"defund the police",
	"blue lives matter",
	"black lives matter",
	"all lives matter",
	"crt",
	"critical race theory",
	"election fraud",
	"stolen election",
}
