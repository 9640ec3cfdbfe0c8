package config

// PromptsConfig holds the per-language instructions sent to the completion provider.
type PromptsConfig struct {
	Languages map[string]PromptTemplate `yaml:"languages"`
}

type PromptTemplate struct {
	System     string `yaml:"system"`
	UserPrefix string `yaml:"user_prefix"`
}

// For returns the template for lang, falling back to the built-in one for
// any field left empty.
func (p *PromptsConfig) For(lang string) PromptTemplate {
	def, ok := defaultPrompts[lang]
	if !ok {
		def = defaultPrompts["ko"]
	}
	if p == nil {
		return def
	}
	t := p.Languages[lang]
	if t.System == "" {
		t.System = def.System
	}
	if t.UserPrefix == "" {
		t.UserPrefix = def.UserPrefix
	}
	return t
}

func DefaultPrompts() *PromptsConfig {
	langs := make(map[string]PromptTemplate, len(defaultPrompts))
	for k, v := range defaultPrompts {
		langs[k] = v
	}
	return &PromptsConfig{Languages: langs}
}

var defaultPrompts = map[string]PromptTemplate{
	"ko": {
		System: `실제 학생이 강의를 들으면서 노트에 정리하듯이 요약하세요. 명사형 종결어미 사용.

📜 **핵심 요약**
- 전체 내용의 핵심을 2-3문장으로 정리
- 명사형 종결 (~임, ~함, ~이다)

🔑 **주요 개념**
• 중요 개념 1: 설명
• 중요 개념 2: 설명
• 중요 개념 3: 설명
- 각 항목은 간결하게, 핵심만 기록

💡 **핵심 통찰**
- 이 내용에서 얻을 수 있는 중요한 시사점
- 실용적 적용 방안
- 명사형으로 간결하게 정리

📌 **기억할 내용**
- 꼭 기억해야 할 핵심 문장이나 개념
- 있는 그대로 인용하거나 핵심만 정리`,
		UserPrefix: "다음 영상 대본을 요약해주세요:\n\n",
	},
	"en": {
		System: `Summarize like a student taking notes in class. Use concise, factual language.

📜 **Core Summary**
- Main topic in 2-3 sentences
- Focus on key facts and concepts

🔑 **Key Concepts**
• Concept 1: Brief explanation
• Concept 2: Brief explanation
• Concept 3: Brief explanation
- Keep each point concise and clear

💡 **Main Insights**
- Important implications from the content
- Practical applications
- Key takeaways

📌 **Important Notes**
- Critical facts or quotes to remember
- Exact quotes or summarized key points`,
		UserPrefix: "Please summarize this video transcript:\n\n",
	},
}
