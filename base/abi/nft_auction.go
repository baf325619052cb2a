package abi

// NftAuctionV1ABI and NftAuctionV2ABI describe the two implementation
// versions installed behind the proxy. V2 only appends to V1.
const NftAuctionV1ABI = `[` + nftAuctionV1Entries + `]`

const NftAuctionV2ABI = `[` + nftAuctionV1Entries + `,` + nftAuctionV2Entries + `]`

const nftAuctionV1Entries = `{"type":"function","name":"initialize","stateMutability":"nonpayable","inputs":[],"outputs":[]},` +
	`{"type":"function","name":"admin","stateMutability":"view","inputs":[],"outputs":[{"type":"address","name":""}]},` +
	`{"type":"function","name":"nextAuctionId","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256","name":""}]},` +
	`{"type":"function","name":"createAuction","stateMutability":"nonpayable","inputs":[{"type":"address","name":"nftAddress"},{"type":"uint256","name":"tokenId"},{"type":"uint256","name":"duration"},{"type":"uint256","name":"startPrice"}],"outputs":[]},` +
	`{"type":"function","name":"bid","stateMutability":"payable","inputs":[{"type":"uint256","name":"auctionId"}],"outputs":[]},` +
	`{"type":"function","name":"endAuction","stateMutability":"nonpayable","inputs":[{"type":"uint256","name":"auctionId"}],"outputs":[]},` +
	`{"type":"function","name":"auctions","stateMutability":"view","inputs":[{"type":"uint256","name":""}],"outputs":[{"type":"address","name":"seller"},{"type":"uint256","name":"duration"},{"type":"uint256","name":"startPrice"},{"type":"uint256","name":"startTime"},{"type":"bool","name":"ended"},{"type":"address","name":"highestBidder"},{"type":"uint256","name":"highestBid"},{"type":"address","name":"nftContract"},{"type":"uint256","name":"tokenId"}]},` +
	`{"type":"event","name":"AuctionCreated","anonymous":false,"inputs":[{"type":"uint256","name":"auctionId","indexed":true},{"type":"address","name":"seller","indexed":true},{"type":"address","name":"nftAddress","indexed":false},{"type":"uint256","name":"tokenId","indexed":false}]},` +
	`{"type":"event","name":"BidPlaced","anonymous":false,"inputs":[{"type":"uint256","name":"auctionId","indexed":true},{"type":"address","name":"bidder","indexed":true},{"type":"uint256","name":"amount","indexed":false}]},` +
	`{"type":"event","name":"AuctionEnded","anonymous":false,"inputs":[{"type":"uint256","name":"auctionId","indexed":true},{"type":"address","name":"winner","indexed":false},{"type":"uint256","name":"amount","indexed":false}]}`

const nftAuctionV2Entries = `{"type":"function","name":"setEthUsdPriceFeed","stateMutability":"nonpayable","inputs":[{"type":"address","name":"feed"}],"outputs":[]},` +
	`{"type":"function","name":"ethUsdPriceFeed","stateMutability":"view","inputs":[],"outputs":[{"type":"address","name":""}]},` +
	`{"type":"function","name":"getEthUsdValue","stateMutability":"view","inputs":[{"type":"uint256","name":"amount"}],"outputs":[{"type":"uint256","name":""}]},` +
	`{"type":"function","name":"bidWithEth","stateMutability":"payable","inputs":[{"type":"uint256","name":"auctionId"}],"outputs":[]}`
