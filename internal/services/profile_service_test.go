package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studyhub/backend-go/internal/persona"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

var userColumns = []string{
	"user_id", "username", "email",
	"language", "tone", "persona_type", "persona_key", "custom_persona", "explanation_style",
}

func TestProfileDefaults(t *testing.T) {
	p := DefaultProfile()

	assert.Equal(t, persona.LanguageEnglish, p.Language)
	assert.Equal(t, persona.ToneWarm, p.Tone)
	assert.Equal(t, persona.PersonaTypePredefined, p.PersonaType)
	assert.Equal(t, persona.PersonaPeerMentor, p.PersonaKey)
	assert.Equal(t, "", p.CustomPersona)
	assert.Equal(t, persona.StyleDetailed, p.ExplanationStyle)
}

func TestResolveUserNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	svc := NewProfileService(db, nil, 0)
	profile := svc.Resolve(context.Background(), 42)

	assert.Equal(t, DefaultProfile(), profile)
}

func TestResolveStoredProfile(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "thandi", "thandi@example.com",
				"zulu", "funny", "predefined", "cape_town_tutor", "", "examples"))

	svc := NewProfileService(db, nil, 0)
	profile := svc.Resolve(context.Background(), 7)

	assert.Equal(t, persona.Language("zulu"), profile.Language)
	assert.Equal(t, persona.ToneFunny, profile.Tone)
	assert.Equal(t, persona.PersonaCapeTownTutor, profile.PersonaKey)
	assert.Equal(t, persona.StyleExamples, profile.ExplanationStyle)
}

func TestResolveInvalidFieldsFallBack(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "sam", "sam@example.com",
				"klingon", "shouty", "weird", "", "", "interpretive"))

	svc := NewProfileService(db, nil, 0)
	profile := svc.Resolve(context.Background(), 7)

	// 逐字段回退，而不是整体回退
	assert.Equal(t, persona.LanguageEnglish, profile.Language)
	assert.Equal(t, persona.ToneWarm, profile.Tone)
	assert.Equal(t, persona.PersonaTypePredefined, profile.PersonaType)
	assert.Equal(t, persona.PersonaPeerMentor, profile.PersonaKey)
	assert.Equal(t, persona.StyleDetailed, profile.ExplanationStyle)
}

func TestResolveKeepsUnknownPersonaKey(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "sam", "sam@example.com",
				"english", "warm", "predefined", "retired_astronaut", "", "detailed"))

	svc := NewProfileService(db, nil, 0)
	profile := svc.Resolve(context.Background(), 7)

	// 未知人设键保留，生效文本为空
	assert.Equal(t, persona.PersonaKey("retired_astronaut"), profile.PersonaKey)
	assert.Equal(t, "", profile.EffectivePersona())
}

func TestEffectivePersona(t *testing.T) {
	custom := Profile{
		PersonaType:   persona.PersonaTypeCustom,
		CustomPersona: "Speak like a pirate.",
		PersonaKey:    persona.PersonaPeerMentor,
	}
	assert.Equal(t, "Speak like a pirate.", custom.EffectivePersona())

	// custom类型但文本为空时回退预置表
	emptyCustom := Profile{
		PersonaType: persona.PersonaTypeCustom,
		PersonaKey:  persona.PersonaPeerMentor,
	}
	assert.Equal(t, persona.PersonaPeerMentor.Text(), emptyCustom.EffectivePersona())

	predefined := Profile{
		PersonaType: persona.PersonaTypePredefined,
		PersonaKey:  persona.PersonaXhosaElder,
	}
	assert.Equal(t, persona.PersonaXhosaElder.Text(), predefined.EffectivePersona())
}
