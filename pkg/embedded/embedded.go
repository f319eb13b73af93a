package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/new_song.tmpl
var NewSongTmpl []byte

//go:embed data/refine_song.tmpl
var RefineSongTmpl []byte
