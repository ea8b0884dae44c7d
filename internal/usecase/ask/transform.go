package ask

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// minTransformWords is the question length below which transformation
// is skipped; short queries are usually already keywords.
const minTransformWords = 3

// maxKeywords caps the rewritten query length.
const maxKeywords = 7

const keywordSystemPrompt = "You are a search query optimizer. Extract keywords concisely."

const keywordUserPrompt = `Extract 5-10 search keywords from this question.
Include the original key terms plus synonyms and related terms that would help find relevant resume content.
IMPORTANT: For acronyms like AI, ML, DevOps, CI/CD - include BOTH the acronym AND the expanded form.
Examples: "AI" → "AI artificial intelligence" | "ML" → "ML machine learning"
Output only keywords, space-separated, no punctuation.

Question: %s
Keywords:`

// KeywordTransformer expands a question into retrieval keywords with a
// single buffered completion. Any failure falls back to the original
// question, so retrieval is never blocked on the provider.
type KeywordTransformer struct {
	llm    OneShot
	logger *zap.Logger
}

// NewKeywordTransformer creates a keyword-expansion transformer.
func NewKeywordTransformer(llm OneShot, logger *zap.Logger) *KeywordTransformer {
	return &KeywordTransformer{llm: llm, logger: logger}
}

// Transform rewrites the question into up to seven deduplicated
// keywords. Questions of three words or fewer pass through untouched.
func (t *KeywordTransformer) Transform(ctx context.Context, question string) string {
	if len(strings.Fields(question)) <= minTransformWords {
		t.logger.Debug("question too short for keyword expansion",
			zap.String("question", question))
		return question
	}

	raw, tokensUsed, err := t.llm.CompleteOnce(ctx, keywordSystemPrompt,
		fmt.Sprintf(keywordUserPrompt, question))
	if err != nil {
		t.logger.Warn("keyword expansion failed, using original question",
			zap.String("question_preview", preview(question, 50)),
			zap.Error(err))
		return question
	}

	keywords := parseKeywords(raw)
	if len(keywords) == 0 {
		t.logger.Warn("no usable keywords extracted",
			zap.String("output_preview", preview(raw, 100)))
		return question
	}

	rewritten := strings.Join(keywords, " ")
	t.logger.Info("question rewritten for retrieval",
		zap.String("original_preview", preview(question, 50)),
		zap.String("keywords", rewritten),
		zap.Int("tokens_used", tokensUsed))
	return rewritten
}

// parseKeywords normalizes the model output: lowercase, punctuation
// trimmed, words of two or fewer characters dropped, duplicates
// removed in first-seen order, capped at maxKeywords.
func parseKeywords(raw string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range strings.Fields(raw) {
		word = strings.ToLower(strings.Trim(word, `.,!?;:"'`))
		if len(word) <= 2 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) >= maxKeywords {
			break
		}
	}
	return keywords
}
