package factory

// Built-in templates, available without a templates directory.

type builtinTemplate struct {
	format string
	data   string
}

var builtinTemplates = []builtinTemplate{
	{format: "json", data: balanced30JSON},
	{format: "yaml", data: highProtein60YAML},
}

const balanced30JSON = `{
  "id": "balanced-30",
  "name": "Balanced 30",
  "description": "Four meals a day, alternating two day patterns.",
  "durationDays": 30,
  "days": [
    {
      "slots": [
        {"name": "Breakfast", "time": "08:00", "items": [
          {"name": "Oats", "portion": "60g", "calories": 230, "protein": 8, "carbs": 40, "fat": 4},
          {"name": "Blueberries", "portion": "100g", "calories": 57}
        ]},
        {"name": "Lunch", "time": "13:00", "items": [
          {"name": "Grilled chicken", "portion": "150g", "calories": 250, "protein": 46, "fat": 5},
          {"name": "Brown rice", "portion": "120g", "calories": 140, "carbs": 30}
        ]},
        {"name": "Snack", "time": "16:30", "items": [
          {"name": "Greek yogurt", "portion": "150g", "calories": 130, "protein": 15}
        ]},
        {"name": "Dinner", "time": "19:30", "items": [
          {"name": "Salmon", "portion": "140g", "calories": 290, "protein": 30, "fat": 18},
          {"name": "Steamed vegetables", "portion": "200g", "calories": 70}
        ]}
      ]
    },
    {
      "slots": [
        {"name": "Breakfast", "time": "08:00", "items": [
          {"name": "Egg omelette", "portion": "3 eggs", "calories": 220, "protein": 18, "fat": 15},
          {"name": "Wholegrain toast", "portion": "1 slice", "calories": 80}
        ]},
        {"name": "Lunch", "time": "13:00", "items": [
          {"name": "Lentil salad", "portion": "250g", "calories": 320, "protein": 18, "carbs": 45}
        ]},
        {"name": "Snack", "time": "16:30", "items": [
          {"name": "Almonds", "portion": "25g", "calories": 145, "fat": 12}
        ]},
        {"name": "Dinner", "time": "19:30", "items": [
          {"name": "Turkey meatballs", "portion": "180g", "calories": 310, "protein": 34},
          {"name": "Quinoa", "portion": "100g", "calories": 120, "carbs": 21}
        ]}
      ]
    }
  ]
}`

const highProtein60YAML = `
id: high-protein-60
name: High Protein 60
description: Three meals and a shake, single repeating day.
durationDays: 60
days:
  - notes: Drink at least 3 litres of water.
    slots:
      - name: Breakfast
        time: "07:30"
        items:
          - {name: Egg whites, portion: 200g, calories: 104, protein: 22}
          - {name: Oats, portion: 40g, calories: 150, carbs: 27}
      - name: Lunch
        time: "12:30"
        items:
          - {name: Lean beef, portion: 170g, calories: 330, protein: 44, fat: 16}
          - {name: Sweet potato, portion: 150g, calories: 130, carbs: 30}
      - name: Shake
        time: "16:00"
        items:
          - {name: Whey protein, portion: 1 scoop, calories: 120, protein: 24}
      - name: Dinner
        time: "19:00"
        items:
          - {name: Cod, portion: 200g, calories: 180, protein: 40}
          - {name: Green beans, portion: 150g, calories: 47}
`
