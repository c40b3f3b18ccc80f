package payment

import "strings"

var InstructionMap = map[Category][]string{
	CategoryBankCard: {
		"Enter the 9-digit number of the card or account you pay from",
		"Check that the amount due is {{amount}}",
		"Press Pay and wait for the bank to confirm the payment",
		"You can follow the status on the order page",
	},
	CategorySomeOne: {
		"Enter the 9-digit account number of the person paying for you",
		"Make sure the payer agrees to pay {{amount}}",
		"Press Pay and wait for the confirmation",
		"You can follow the status on the order page",
	},
}

func GetInstructions(c Category) []string {
	if steps, ok := InstructionMap[c]; ok {
		return steps
	}

	return []string{
		"Follow the payment instructions shown on the order page",
	}
}

type InstructionVars map[string]string

func InjectVariables(steps []string, vars InstructionVars) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(updated, "{{"+key+"}}", value)
		}
		result = append(result, updated)
	}

	return result
}
