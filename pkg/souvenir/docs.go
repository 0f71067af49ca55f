package souvenir

// swagger:parameters uploadSouvenir
type _ struct {
	// Party id
	// in: path
	// required: true
	ID uint `json:"id"`

	// Photo, video or audio file
	// in: formData
	// required: true
	// swagger:file
	File []byte `json:"file"`

	// in: formData
	Caption string `json:"caption"`
}

// swagger:parameters findSouvenirs archiveSouvenirs downloadSouvenir deleteSouvenir
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}

// swagger:parameters findSouvenirs
type _ struct {
	// in: query
	// enum: photo,video,audio
	Kind string `json:"kind"`
}

// swagger:response DownloadResponse
type _ struct {
	// in: body
	Body []byte
}

// swagger:response ArchiveResponse
type _ struct {
	// gzip compressed tar archive
	// in: body
	Body []byte
}
