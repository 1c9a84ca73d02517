package ai

import "fmt"

// NoSignGesture is what the model is told to answer when no sign is visible.
const NoSignGesture = "No clear sign detected"

// BuildPrompt returns the instruction sent alongside the captured frame.
func BuildPrompt(targetLanguage string) string {
	return fmt.Sprintf(`Analyze this image for sign language gestures. If you detect any sign language:
1. Identify the specific gesture or sign being made
2. Translate it to %[1]s
3. Provide a confidence score (0-100)

Return your response in this exact JSON format:
{
  "detectedGesture": "description of the sign or gesture detected",
  "translation": "translation in %[1]s",
  "confidence": confidence_score_as_number
}

If no clear sign language is detected, return:
{
  "detectedGesture": "%[2]s",
  "translation": "Please make a clear sign language gesture",
  "confidence": 0
}`, targetLanguage, NoSignGesture)
}
