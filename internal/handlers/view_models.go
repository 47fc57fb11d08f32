package handlers

import (
	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/security"
)

type SessionResponse struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      security.Role `json:"role"`
	ExpiresAt string        `json:"expires_at"`
	CSRFToken string        `json:"csrf_token"`
	Token     string        `json:"token,omitempty"`
}

type UserView struct {
	ID    string        `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Role  security.Role `json:"role"`
}

type HomeLinks struct {
	Start   string `json:"start,omitempty"`
	Summary string `json:"summary"`
	Info    string `json:"info"`
	Coach   string `json:"coach,omitempty"`
}

type HomeResponse struct {
	User          UserView       `json:"user"`
	Date          string         `json:"date"`
	CurrentScene  int            `json:"current_scene"`
	Scene         *content.Scene `json:"scene"`
	AllScenesDone bool           `json:"all_scenes_done"`
	Links         HomeLinks      `json:"links"`
}

type RoundInfo struct {
	N              int    `json:"n"`
	CharacterLabel string `json:"character_label"`
	Situation      string `json:"situation"`
}

type SceneView struct {
	content.Scene
	Rounds []RoundInfo `json:"rounds"`
}

type SceneListResponse struct {
	Scenes     []SceneView         `json:"scenes"`
	Characters []content.Character `json:"characters"`
}
