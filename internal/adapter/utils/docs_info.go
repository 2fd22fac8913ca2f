package utils

//run ollama with the two models
//ollama pull all-minilm && ollama pull mistral

//optional redis for the query embedding cache
//docker run -p 6379:6379 -d redis

//optional qdrant backend (VECTOR_STORE_BACKEND=qdrant)
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
