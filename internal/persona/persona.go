// Package persona 定义助手的语气、人设、讲解风格与语言的封闭集合。
// 未知键一律降级为默认/空值，不报错。
package persona

// Tone 语气
type Tone string

const (
	ToneWarm   Tone = "warm"
	ToneFormal Tone = "formal"
	ToneCasual Tone = "casual"
	ToneFunny  Tone = "funny"
)

var toneDirectives = map[Tone]string{
	ToneWarm:   "You are kind and motivational, offering encouragement and positive reinforcement.",
	ToneFormal: "You are professional, precise, and academic in your responses.",
	ToneCasual: "You speak informally like a friend, using contractions and everyday language.",
	ToneFunny:  "You use humor, light-hearted jokes, and relatable analogies when appropriate.",
}

// Directive 返回语气指令，未知语气回退到warm
func (t Tone) Directive() string {
	if d, ok := toneDirectives[t]; ok {
		return d
	}
	return toneDirectives[ToneWarm]
}

// Valid 检查语气是否在封闭集合内
func (t Tone) Valid() bool {
	_, ok := toneDirectives[t]
	return ok
}

// PersonaKey 预置人设键
type PersonaKey string

const (
	PersonaXhosaElder       PersonaKey = "xhosa_elder"
	PersonaCapeTownTutor    PersonaKey = "cape_town_tutor"
	PersonaIndianUncle      PersonaKey = "indian_uncle"
	PersonaAfrikaansTeacher PersonaKey = "afrikaans_teacher"
	PersonaPeerMentor       PersonaKey = "peer_mentor"
)

var predefinedPersonas = map[PersonaKey]string{
	PersonaXhosaElder:       "You speak with the wisdom and patience of a Xhosa elder, using proverbs and cultural references.",
	PersonaCapeTownTutor:    "You have the approachable yet knowledgeable style of a Coloured tutor from Cape Town.",
	PersonaIndianUncle:      "You explain concepts with the warmth and occasional sternness of an Indian uncle/auntie.",
	PersonaAfrikaansTeacher: "You have the structured, clear approach of an Afrikaans high school teacher.",
	PersonaPeerMentor:       "You speak like an experienced peer mentor, balancing expertise with approachability.",
}

// Text 返回人设文本，未知键降级为空字符串（fail open）
func (k PersonaKey) Text() string {
	return predefinedPersonas[k]
}

// Valid 检查人设键是否在封闭集合内
func (k PersonaKey) Valid() bool {
	_, ok := predefinedPersonas[k]
	return ok
}

// PersonaType 人设来源类型
type PersonaType string

const (
	PersonaTypePredefined PersonaType = "predefined"
	PersonaTypeCustom     PersonaType = "custom"
)

// Style 讲解风格
type Style string

const (
	StyleDetailed Style = "detailed"
	StyleBrief    Style = "brief"
	StyleExamples Style = "examples"
	StyleGuided   Style = "guided"
)

var styleDirectives = map[Style]string{
	StyleDetailed: "Provide step-by-step breakdowns with clear transitions between concepts.",
	StyleBrief:    "Keep answers concise and to the point, avoiding unnecessary details.",
	StyleExamples: "Always include at least one practical example or real-world application.",
	StyleGuided:   "After explaining, ask the student a follow-up question to check understanding.",
}

// Directive 返回风格指令，未知风格回退到detailed
func (s Style) Directive() string {
	if d, ok := styleDirectives[s]; ok {
		return d
	}
	return styleDirectives[StyleDetailed]
}

// Valid 检查风格是否在封闭集合内
func (s Style) Valid() bool {
	_, ok := styleDirectives[s]
	return ok
}

// Language 回答语言
type Language string

const LanguageEnglish Language = "english"

// 支持的语言表：11种南非官方语言、部分土著语言方言及其他常用语言
var languageNames = map[Language]string{
	"english":   "English",
	"afrikaans": "Afrikaans",
	"xhosa":     "isiXhosa",
	"zulu":      "isiZulu",
	"sotho":     "Sesotho (Southern Sotho)",
	"pedi":      "Sepedi (Northern Sotho)",
	"tswana":    "Setswana",
	"tsonga":    "Xitsonga",
	"swati":     "siSwati",
	"venda":     "Tshivenda",
	"ndebele":   "isiNdebele",

	"xhosa_hlubi":   "isiHlubi (Xhosa dialect)",
	"xhosa_bhaca":   "isiBhaca (Xhosa dialect)",
	"zulu_ndwandwe": "isiNdwandwe (Zulu dialect)",
	"sotho_phuthi":  "Sephuthi (Sotho dialect)",
	"tswana_rolong": "Setswana Rolong",
	"tswana_kgatla": "Setswana Kgatla",
	"venda_luvhimbi": "Luvhimbi (Venda dialect)",
	"tsonga_ronga":  "Xironga (Tsonga dialect)",
	"khoekhoe":      "Khoekhoegowab (Khoisan)",
	"san":           "ǀXam (San)",

	"hindi":      "Hindi",
	"gujarati":   "Gujarati",
	"tamil":      "Tamil",
	"telugu":     "Telugu",
	"urdu":       "Urdu",
	"portuguese": "Portuguese",
	"french":     "French",
}

// Name 返回语言显示名，未知语言回退到English
func (l Language) Name() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return languageNames[LanguageEnglish]
}

// Valid 检查语言是否在支持表内
func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}
