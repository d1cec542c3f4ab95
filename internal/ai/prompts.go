package ai

import (
	"fmt"
	"strings"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

const foodJSONShape = `{
  "name": "конкретное название блюда на русском языке",
  "emoji": "🍽️",
  "calories": целое_число_ккал,
  "macros": {
    "protein": граммы_белка,
    "fat": граммы_жиров,
    "carbs": граммы_углеводов
  },
  "healthScore": число_от_0_до_100
}`

const healthScoreGuide = `ОЦЕНКА ПОЛЕЗНОСТИ (healthScore):
- 0-30: вредная еда (фастфуд, сладости, жареное)
- 31-60: средняя (смешанные блюда, умеренно полезные)
- 61-100: полезная (овощи, нежирный белок, цельные злаки)`

// FoodImagePrompt asks for a nutrition estimate of a photo. A non-empty
// nameHint is what the user says the dish is.
func FoodImagePrompt(nameHint string) string {
	var hint string
	if nameHint = strings.TrimSpace(nameHint); nameHint != "" {
		hint = fmt.Sprintf("\nПользователь указал, что это блюдо: %q. Используй это название, уточнив его при необходимости, и рассчитай данные именно для него.\n", nameHint)
	}
	return `Ты профессиональный диетолог. Проанализируй еду на изображении и верни СТРОГО JSON:
` + foodJSONShape + `
` + hint + `
ВАЖНО:
1. Всегда указывай КОНКРЕТНОЕ название блюда (например: "Шаурма с курицей", "Бутерброд с колбасой")
2. Никогда не используй общие названия вроде "Еда", "Блюдо", "Неизвестно"
3. Если на фото несколько блюд, посчитай их вместе
4. Если на изображении НЕ еда, верни calories: 0

` + healthScoreGuide + `

Верни ТОЛЬКО валидный JSON, без markdown и без пояснений.`
}

// FoodTextPrompt asks for a nutrition estimate of a description.
func FoodTextPrompt(description string) string {
	return fmt.Sprintf(`Ты профессиональный диетолог. Проанализируй описание блюда и верни точные данные о калорийности и БЖУ.

ОПИСАНИЕ: %q

ИНСТРУКЦИИ:
1. Определи, что это за блюдо или блюда
2. Учти количество порций (если указано "два бургера", посчитай оба)
3. Оцени размер порции
4. Если это НЕ еда, укажи calories: 0
5. Подбери один подходящий эмодзи

%s

Верни ТОЛЬКО JSON без пояснений:
%s`, description, healthScoreGuide, foodJSONShape)
}

// RecipePrompt asks for a full recipe.
func RecipePrompt(params RecipeParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ты профессиональный шеф-повар и диетолог. Создай детальный рецепт для блюда: %q.\n\n", params.DishName)

	b.WriteString("ИНСТРУКЦИИ:\n")
	if params.Image != nil {
		b.WriteString("1. Проанализируй изображение блюда и название\n")
	} else {
		b.WriteString("1. Проанализируй название блюда\n")
	}
	b.WriteString(`2. Определи время подготовки в минутах (prepTime)
3. Определи уровень сложности: "easy", "medium" или "hard"
4. Укажи время готовки в формате "ЧЧ:ММ" (cookTime)
5. Рассчитай калории и БЖУ на одну порцию
6. Составь список ингредиентов с количеством и калориями
7. Напиши пошаговые инструкции
`)
	if params.Goal != "" {
		fmt.Fprintf(&b, "8. Учитывай цель пользователя: %s\n", params.Goal)
	}
	if len(params.Allergies) > 0 {
		fmt.Fprintf(&b, "\nНЕ ИСПОЛЬЗУЙ ингредиенты, вызывающие аллергию: %s\n", strings.Join(params.Allergies, ", "))
	}

	b.WriteString(`
Верни ТОЛЬКО JSON:
{
  "name": "Полное название блюда",
  "description": "Одно-два предложения о блюде",
  "calories": число_ккал_на_порцию,
  "macros": {"protein": граммы, "fat": граммы, "carbs": граммы},
  "prepTime": число_минут,
  "cookTime": "ЧЧ:ММ",
  "difficulty": "easy|medium|hard",
  "servings": количество_порций,
  "ingredients": [
    {"name": "Ингредиент", "amount": "Количество", "unit": "шт|г|мл|ст.л|ч.л", "calories": число_ккал}
  ],
  "instructions": ["Шаг 1: ...", "Шаг 2: ..."]
}`)
	return b.String()
}

// ChatSystemPrompt describes the assistant and the user it talks to.
func ChatSystemPrompt(u *domain.User, todayFoods []domain.FoodEntry) string {
	var b strings.Builder
	b.WriteString(`Ты AI-нутрициолог в приложении FLAI. Ты умный и эмпатичный эксперт по питанию.

ПРАВИЛА:
- Отвечай кратко (2-4 предложения)
- Без приветствий в середине разговора
- Помни контекст предыдущих сообщений
- Давай конкретные персонализированные советы на основе данных пользователя
`)
	if u != nil {
		p := u.Profile
		b.WriteString("\nДАННЫЕ ПОЛЬЗОВАТЕЛЯ:\n")
		fmt.Fprintf(&b, "- Имя: %s\n", u.DisplayName())
		fmt.Fprintf(&b, "- Возраст: %s\n", orUnknown(p.Age, "лет"))
		fmt.Fprintf(&b, "- Рост: %s\n", orUnknownFloat(p.HeightCm, "см"))
		fmt.Fprintf(&b, "- Вес: %s\n", orUnknownFloat(p.WeightKg, "кг"))
		fmt.Fprintf(&b, "- Целевой вес: %s\n", orUnknownFloat(p.TargetWeightKg, "кг"))
		fmt.Fprintf(&b, "- Пол: %s\n", genderLabel(p.Gender))
		fmt.Fprintf(&b, "- Цель: %s\n", orDash(p.Goal))
		fmt.Fprintf(&b, "- Уровень активности: %s\n", orDash(p.ActivityLevel))
		fmt.Fprintf(&b, "- Норма калорий: %d ккал\n", p.DailyCalories)
		fmt.Fprintf(&b, "- Макросы: белки %dг, жиры %dг, углеводы %dг\n", p.ProteinTarget, p.FatTarget, p.CarbsTarget)
		fmt.Fprintf(&b, "- Норма воды: %d мл\n", p.WaterTargetMl)
		if len(p.Allergies) > 0 {
			fmt.Fprintf(&b, "- Аллергии: %s\n", strings.Join(p.Allergies, ", "))
		} else {
			b.WriteString("- Аллергии: нет\n")
		}
	}

	b.WriteString("\nСЕГОДНЯШНИЙ РАЦИОН:\n")
	writeFoods(&b, todayFoods)
	return b.String()
}

// DailySummaryPrompt asks for an evaluation of one day of eating.
func DailySummaryPrompt(summary domain.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Оцени мой рацион за %s.\n\n", summary.Date)
	fmt.Fprintf(&b, "Съедено: %d из %d ккал. Белки %.1f/%.1fг, жиры %.1f/%.1fг, углеводы %.1f/%.1fг.\n\n",
		summary.TotalCalories, summary.TargetCalories,
		summary.Consumed.Protein, summary.Target.Protein,
		summary.Consumed.Fat, summary.Target.Fat,
		summary.Consumed.Carbs, summary.Target.Carbs,
	)
	b.WriteString("Блюда:\n")
	writeFoods(&b, summary.Foods)
	b.WriteString("\nДай короткую оценку дня, отметь что получилось хорошо и что стоит поправить завтра. До 6 предложений.")
	return b.String()
}

func writeFoods(b *strings.Builder, foods []domain.FoodEntry) {
	if len(foods) == 0 {
		b.WriteString("- Пока ничего не съедено\n")
		return
	}
	for _, f := range foods {
		m := f.Macros.Rounded()
		fmt.Fprintf(b, "- %s: %d ккал (Б%.1fг Ж%.1fг У%.1fг)\n", f.Name, f.Calories, m.Protein, m.Fat, m.Carbs)
	}
}

func orUnknown(v int, unit string) string {
	if v <= 0 {
		return "не указан"
	}
	return fmt.Sprintf("%d %s", v, unit)
}

func orUnknownFloat(v float64, unit string) string {
	if v <= 0 {
		return "не указан"
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}

func orDash(s string) string {
	if s == "" {
		return "не указан"
	}
	return s
}

func genderLabel(g string) string {
	switch g {
	case "male":
		return "мужской"
	case "female":
		return "женский"
	default:
		return "не указан"
	}
}
