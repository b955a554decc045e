package codes

import (
	"strconv"

	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
)

// TopicCodeLength is the width a topic code must have before lessons can hang off it.
const TopicCodeLength = 2

func CourseCode(programCode string, sequence int) (string, error) {
	const op = "codes.CourseCode"
	if len(programCode) != ProgramCodeLength {
		return "", apperr.Invalid(op, "programCode", "must be exactly 6 characters")
	}
	if sequence < 1 {
		return "", apperr.Invalid(op, "sequence", "must be >= 1")
	}
	return programCode + strconv.Itoa(sequence), nil
}

func TopicCode(courseSequence, topicSequence int) (string, error) {
	const op = "codes.TopicCode"
	if courseSequence < 1 {
		return "", apperr.Invalid(op, "courseSequence", "must be >= 1")
	}
	if topicSequence < 1 {
		return "", apperr.Invalid(op, "topicSequence", "must be >= 1")
	}
	return strconv.Itoa(courseSequence) + strconv.Itoa(topicSequence), nil
}

func LessonCode(topicCode string, lessonSequence int) (string, error) {
	const op = "codes.LessonCode"
	if len(topicCode) != TopicCodeLength {
		return "", apperr.Invalid(op, "topicCode", "must be exactly 2 characters")
	}
	if lessonSequence < 1 {
		return "", apperr.Invalid(op, "lessonSequence", "must be >= 1")
	}
	return topicCode + strconv.Itoa(lessonSequence), nil
}
