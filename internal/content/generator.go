// Package content produces post text from templates and gathers the inputs
// that feed it: industry headlines, a business profile scraped from a website
// and a weekly posting plan.
package content

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Profile describes the business a batch of posts is written for.
type Profile struct {
	Name     string   `json:"name" binding:"required"`
	Industry string   `json:"industry" binding:"required"`
	Services []string `json:"services"`
}

const (
	PostTypePromo  = "promo"
	PostTypeTip    = "tip"
	PostTypeUpdate = "update"

	ContentTypeTrending = "trending"
)

var toneTemplates = map[string]map[string]string{
	"professional": {
		PostTypePromo:  "Discover how {service} can benefit your business with {business_name}.",
		PostTypeTip:    "Pro tip: {tip} - straight from the experts at {business_name}.",
		PostTypeUpdate: "We're excited to share some updates: {update}",
	},
	"witty": {
		PostTypePromo:  "Need {service}? We got you. {business_name} is making waves!",
		PostTypeTip:    "Here's a golden nugget for you 💡: {tip} - courtesy of {business_name}.",
		PostTypeUpdate: "What's cooking at {business_name}? Spoiler: {update}",
	},
	"friendly": {
		PostTypePromo:  "Hey there! Have you tried our {service}? You'll love what {business_name} can do for you!",
		PostTypeTip:    "Quick tip from your friends at {business_name}: {tip}",
		PostTypeUpdate: "We've got some news! {update} - from all of us at {business_name}.",
	},
}

var tips = []string{
	"Automate where you can to save time",
	"Listen to your customer feedback regularly",
	"Stay consistent with your brand messaging",
	"Review your analytics monthly",
	"Keep your online presence up to date",
}

var industryTemplates = map[string]map[string][]string{
	"fitness": {
		"professional": {
			"🏋️ Transform your fitness journey with our expert-led training programs! Our certified trainers are here to help you achieve your goals. Ready to start your transformation? 💪",
			"📊 Fitness Fact: Regular exercise can boost your energy levels by 20%! Join our community of motivated individuals working towards their fitness goals. What's your next milestone? 🎯",
			"💡 Pro Tip: Consistency beats perfection every time! Our structured programs help you build sustainable fitness habits. Start your journey today! 🌟",
		},
		"casual": {
			"Hey fitness fam! 💪 Just wanted to share some motivation - remember, every workout counts! What's your favorite exercise? Drop it in the comments! 👇",
			"So, who else is crushing their fitness goals this week? 🏃 Our community is absolutely killing it! Keep pushing, you've got this! 🔥",
		},
		"friendly": {
			"Hey there! 👋 Ready to make today your best workout yet? Our friendly trainers are here to support your fitness journey every step of the way! 💪",
			"Quick reminder: You're doing amazing! 🌟 Every step, every rep, every choice counts towards your goals. We're cheering you on! 🎯",
		},
	},
	"beauty": {
		"professional": {
			"✨ Discover your natural beauty with our expert beauty services! Our certified stylists use premium products to enhance your unique features. Book your consultation today! 💄",
			"💡 Beauty Tip: Proper skincare routine is the foundation of flawless makeup! Our specialists can help you create a personalized regimen. Glow from within! ✨",
		},
		"casual": {
			"Beauty lovers! 💄 Who else is obsessed with the latest makeup trends? Our stylists are sharing some amazing tips today! What's your go-to look? 👄",
		},
		"friendly": {
			"Hey beautiful! ✨ Ready to treat yourself to some self-care? Our friendly stylists are here to help you look and feel your best! 💄",
		},
	},
	"healthcare": {
		"professional": {
			"🏥 Prioritize your health with our comprehensive healthcare services! Our experienced medical professionals are committed to your well-being. Schedule your appointment today! 💊",
			"💡 Health Tip: Early detection saves lives! Our screening services help identify potential health concerns before they become serious. Prevention is key! 🔬",
		},
		"casual": {
			"So, who's scheduled their annual check-up? 🩺 Taking care of your health is the best investment you can make! We're here to help! 💊",
		},
		"friendly": {
			"Hey there! 👋 Taking care of your health doesn't have to be scary! Our friendly healthcare team is here to make your experience comfortable and stress-free! 🏥",
		},
	},
	"tech": {
		"professional": {
			"🚀 Exciting developments in {industry}! Our latest analysis shows significant growth in AI adoption across businesses. What's your take on the future of AI in {industry}?",
			"📊 Industry insights: {industry} is experiencing a digital transformation wave. How is your organization adapting to these changes?",
			"💡 Innovation alert! The {industry} sector is embracing cutting-edge technologies. Stay ahead of the curve! 🎯",
		},
		"casual": {
			"Hey {industry} folks! 👋 Just wanted to share some cool stuff happening in our space. AI is literally everywhere now - pretty wild, right?",
			"Quick {industry} update: things are getting pretty interesting with all the new tech coming out. What's your favorite new tool? 🤖",
		},
	},
	"finance": {
		"professional": {
			"💰 Financial technology is reshaping the {industry} landscape! Digital banking adoption has reached new heights.",
			"💼 Industry update: {industry} is embracing blockchain and AI technologies. How is your organization staying competitive?",
		},
		"casual": {
			"Hey {industry} community! 👋 Mobile banking is literally everywhere now. Anyone else loving the convenience of banking from your phone?",
		},
	},
	"food": {
		"professional": {
			"🍽️ Experience culinary excellence with our chef-crafted dishes! Reserve your table today! 🍴",
			"📈 Food Trend Alert: Plant-based dining is on the rise! What's your favorite dish? 🥗",
		},
		"casual": {
			"Food lovers! 🍕 Who else is always on the hunt for the best restaurants? What's your comfort food? 🍔",
		},
		"friendly": {
			"Hey foodies! 🍽️ Ready for a delicious dining experience? Our friendly staff is here to make your meal memorable! 🍴",
		},
	},
	"education": {
		"professional": {
			"📚 Empower your future with our comprehensive educational programs! Enroll today! 🎓",
			"💡 Learning Tip: The best investment you can make is in yourself! Start your journey! 🌟",
		},
		"casual": {
			"Learning enthusiasts! 📚 Who else is always curious about new topics? What subject fascinates you most? 🧠",
		},
		"friendly": {
			"Hey learners! 📚 Ready to expand your knowledge? Our friendly instructors are here to guide you! 🎓",
		},
	},
}

var trendingHashtags = map[string][]string{
	"fitness":    {"#FitnessGoals", "#WorkoutMotivation", "#HealthyLifestyle"},
	"beauty":     {"#BeautyTrends", "#MakeupInspiration", "#SelfCare"},
	"healthcare": {"#Healthcare", "#Wellness", "#HealthyLiving"},
	"tech":       {"#TechTrends", "#Innovation", "#DigitalTransformation"},
	"finance":    {"#FinTech", "#FinancialFreedom", "#MoneyMatters"},
	"food":       {"#Foodie", "#Delicious", "#Culinary"},
	"education":  {"#Learning", "#Education", "#Knowledge"},
}

const (
	defaultIndustry = "tech"
	defaultTone     = "professional"
)

// Generator fills post templates. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// GenerateAI picks an industry/tone template. Unknown industries fall back
// to tech and unknown tones to professional; trending posts get hashtags.
func (g *Generator) GenerateAI(industry, tone, contentType string) string {
	key := strings.ToLower(strings.TrimSpace(industry))
	tones, ok := industryTemplates[key]
	if !ok {
		key = defaultIndustry
		tones = industryTemplates[key]
	}
	options, ok := tones[strings.ToLower(tone)]
	if !ok {
		options = tones[defaultTone]
	}

	g.mu.Lock()
	text := options[g.rng.IntN(len(options))]
	g.mu.Unlock()

	text = strings.ReplaceAll(text, "{industry}", key)
	if contentType == ContentTypeTrending {
		tags, ok := trendingHashtags[key]
		if !ok {
			tags = []string{"#Trending", "#Innovation"}
		}
		text += "\n\n" + strings.Join(tags, " ")
	}
	return text
}

// Generate writes frequency posts of postType for the profile. Update posts
// draw on news; unknown post types yield no posts.
func (g *Generator) Generate(profile Profile, news []string, tone, postType string, frequency int) []string {
	if frequency <= 0 {
		frequency = 3
	}
	templates, ok := toneTemplates[strings.ToLower(tone)]
	if !ok {
		templates = toneTemplates[defaultTone]
	}
	template, ok := templates[postType]
	if !ok {
		return nil
	}

	var source []string
	var placeholder string
	switch postType {
	case PostTypePromo:
		source, placeholder = profile.Services, "{service}"
	case PostTypeTip:
		source, placeholder = tips, "{tip}"
	case PostTypeUpdate:
		source, placeholder = news, "{update}"
	}
	if len(source) == 0 {
		return nil
	}

	items := g.pick(source, frequency)
	posts := make([]string, 0, len(items))
	r := strings.NewReplacer("{business_name}", profile.Name)
	for _, item := range items {
		posts = append(posts, r.Replace(strings.ReplaceAll(template, placeholder, item)))
	}
	return posts
}

// pick returns n distinct items when the source is large enough, otherwise n
// draws with replacement.
func (g *Generator) pick(source []string, n int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, n)
	if len(source) >= n {
		for _, i := range g.rng.Perm(len(source))[:n] {
			out = append(out, source[i])
		}
		return out
	}
	for i := 0; i < n; i++ {
		out = append(out, source[g.rng.IntN(len(source))])
	}
	return out
}
